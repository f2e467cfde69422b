package models

import (
	"encoding/json"
	"fmt"
)

// Keys every light object must carry. ct is the only optional state key.
var (
	requiredLightKeys = []string{"name", "modelid", "swversion", "uniqueid", "state", "type", "manufacturername", "pointsymbol"}
	requiredStateKeys = []string{"on", "bri", "hue", "sat", "effect", "xy", "alert", "colormode", "reachable"}
)

// checkKeys fails when one of keys is missing or null in the object data
func checkKeys(data []byte, keys []string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("expected object, got null")
	}
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			return fmt.Errorf("missing field %q", key)
		}
		if string(raw) == "null" {
			return fmt.Errorf("field %q is null", key)
		}
	}
	return nil
}

// LightState is the state snapshot the bridge reports for a light
type LightState struct {
	// Current on/off state
	On bool `json:"on"`
	// Brightness level (0-255)
	Bri uint8 `json:"bri"`
	// Hue (0-65535)
	Hue uint16 `json:"hue"`
	// Saturation (0-255)
	Sat uint8 `json:"sat"`
	// Dynamic effect ("none", "colorloop")
	Effect string `json:"effect"`
	// CIE 1931 color coordinates
	XY [2]float64 `json:"xy"`
	// Color temperature in mirek, 0 when the light does not report one
	CT uint16 `json:"ct"`
	// Alert mode ("none", "select", "lselect")
	Alert string `json:"alert"`
	// Which of hs, xy or ct is driving the light
	ColorMode string `json:"colormode"`
	// Whether the bridge can currently reach the light
	Reachable bool `json:"reachable"`
}

// UnmarshalJSON decodes a state object, rejecting missing or null keys
// other than ct
func (s *LightState) UnmarshalJSON(data []byte) error {
	if err := checkKeys(data, requiredStateKeys); err != nil {
		return fmt.Errorf("light state: %w", err)
	}
	type plain LightState
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*s = LightState(decoded)
	return nil
}

// BrightnessPct returns the brightness as a percentage (0-100)
func (s LightState) BrightnessPct() int {
	return int(float64(s.Bri) / 255.0 * 100)
}

// Color returns a display color for the state, or nil for lights
// that report no color mode
func (s LightState) Color() *Color {
	brightness := s.Bri
	if brightness == 0 {
		brightness = 254
	}

	switch s.ColorMode {
	case "hs":
		return NewColorFromHS(s.Hue, s.Sat, brightness)
	case "xy":
		return NewColorFromXY(s.XY[0], s.XY[1], brightness)
	case "ct":
		if s.CT == 0 {
			return nil
		}
		return NewColorFromMirek(s.CT, brightness)
	default:
		return nil
	}
}

// Light is a light as enumerated by the bridge
type Light struct {
	// User-friendly name
	Name string `json:"name"`
	// Hardware model identifier (e.g., "LCT001")
	ModelID string `json:"modelid"`
	// Firmware version
	SWVersion string `json:"swversion"`
	// Globally unique id (MAC-derived)
	UniqueID string `json:"uniqueid"`
	// Current state
	State LightState `json:"state"`
	// Device type (e.g., "Extended color light")
	Type string `json:"type"`
	// Manufacturer name
	ManufacturerName string `json:"manufacturername"`
	// Point-symbol metadata, kept undecoded
	PointSymbol map[string]json.RawMessage `json:"pointsymbol"`
}

// UnmarshalJSON decodes a light object, rejecting missing or null keys
func (l *Light) UnmarshalJSON(data []byte) error {
	if err := checkKeys(data, requiredLightKeys); err != nil {
		return err
	}
	type plain Light
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*l = Light(decoded)
	return nil
}

// Clone creates a deep copy of the light
func (l *Light) Clone() *Light {
	clone := *l
	if l.PointSymbol != nil {
		clone.PointSymbol = make(map[string]json.RawMessage, len(l.PointSymbol))
		for k, v := range l.PointSymbol {
			clone.PointSymbol[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &clone
}

// IdentifiedLight pairs a light with the id the bridge assigned to it.
// Ids are unique and stable per bridge but may have gaps.
type IdentifiedLight struct {
	ID int
	Light
}
