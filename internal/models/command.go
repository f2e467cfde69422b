package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// CommandLight is a partial light state update. Every field is optional
// and absent fields never appear on the wire, not even as null.
//
// Values are immutable from the caller's side: the With* builders return
// a modified copy.
type CommandLight struct {
	on             *bool
	bri            *uint8
	hue            *uint16
	sat            *uint8
	transitionTime *uint16
}

// EmptyCommand returns a command with no fields set
func EmptyCommand() CommandLight {
	return CommandLight{}
}

// OnCommand returns a command that switches a light on
func OnCommand() CommandLight {
	return EmptyCommand().WithOn(true)
}

// OffCommand returns a command that switches a light off
func OffCommand() CommandLight {
	return EmptyCommand().WithOn(false)
}

// WithOn sets the on/off flag
func (c CommandLight) WithOn(on bool) CommandLight {
	c.on = &on
	return c
}

// WithBri sets the brightness (0-255)
func (c CommandLight) WithBri(bri uint8) CommandLight {
	c.bri = &bri
	return c
}

// WithHue sets the hue (0-65535)
func (c CommandLight) WithHue(hue uint16) CommandLight {
	c.hue = &hue
	return c
}

// WithSat sets the saturation (0-255)
func (c CommandLight) WithSat(sat uint8) CommandLight {
	c.sat = &sat
	return c
}

// WithTransitionTime sets the transition duration in multiples of 100ms
func (c CommandLight) WithTransitionTime(deciseconds uint16) CommandLight {
	c.transitionTime = &deciseconds
	return c
}

func (c CommandLight) On() (bool, bool) {
	if c.on == nil {
		return false, false
	}
	return *c.on, true
}

func (c CommandLight) Bri() (uint8, bool) {
	if c.bri == nil {
		return 0, false
	}
	return *c.bri, true
}

func (c CommandLight) Hue() (uint16, bool) {
	if c.hue == nil {
		return 0, false
	}
	return *c.hue, true
}

func (c CommandLight) Sat() (uint8, bool) {
	if c.sat == nil {
		return 0, false
	}
	return *c.sat, true
}

func (c CommandLight) TransitionTime() (uint16, bool) {
	if c.transitionTime == nil {
		return 0, false
	}
	return *c.transitionTime, true
}

// IsEmpty reports whether no field is set
func (c CommandLight) IsEmpty() bool {
	return len(c.Fields()) == 0
}

// Fields returns the wire keys of the present fields, in wire order
func (c CommandLight) Fields() []string {
	var fields []string
	if c.on != nil {
		fields = append(fields, "on")
	}
	if c.bri != nil {
		fields = append(fields, "bri")
	}
	if c.hue != nil {
		fields = append(fields, "hue")
	}
	if c.sat != nil {
		fields = append(fields, "sat")
	}
	if c.transitionTime != nil {
		fields = append(fields, "transitiontime")
	}
	return fields
}

// MarshalJSON writes an object holding only the present fields.
// A command with nothing set encodes as {}.
func (c CommandLight) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	field := func(key string, value []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(key)
		buf.WriteString(`":`)
		buf.Write(value)
	}

	if c.on != nil {
		field("on", strconv.AppendBool(nil, *c.on))
	}
	if c.bri != nil {
		field("bri", strconv.AppendUint(nil, uint64(*c.bri), 10))
	}
	if c.hue != nil {
		field("hue", strconv.AppendUint(nil, uint64(*c.hue), 10))
	}
	if c.sat != nil {
		field("sat", strconv.AppendUint(nil, uint64(*c.sat), 10))
	}
	if c.transitionTime != nil {
		field("transitiontime", strconv.AppendUint(nil, uint64(*c.transitionTime), 10))
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// commandWire mirrors the wire object for decoding
type commandWire struct {
	On             *bool   `json:"on"`
	Bri            *uint8  `json:"bri"`
	Hue            *uint16 `json:"hue"`
	Sat            *uint8  `json:"sat"`
	TransitionTime *uint16 `json:"transitiontime"`
}

// UnmarshalJSON reads a command object. Unknown keys are ignored and
// null values count as absent.
func (c *CommandLight) UnmarshalJSON(data []byte) error {
	var w commandWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = CommandLight{
		on:             w.On,
		bri:            w.Bri,
		hue:            w.Hue,
		sat:            w.Sat,
		transitionTime: w.TransitionTime,
	}
	return nil
}
