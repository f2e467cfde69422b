package models

import (
	"fmt"
	"math"
)

// ColorMode mirrors the bridge's colormode field
type ColorMode string

const (
	ColorModeHS ColorMode = "hs"
	ColorModeXY ColorMode = "xy"
	ColorModeCT ColorMode = "ct"
)

// Color is a display approximation of a light's color. It is only used
// for previews; the bridge never receives it.
type Color struct {
	Mode ColorMode
	// Hue: 0-65535 (maps to 0-360 degrees)
	Hue uint16
	// Saturation: 0-254
	Sat uint8
	// XY color coordinates (CIE 1931 color space)
	X, Y float64
	// Color temperature in mirek (153 = cool, 500 = warm)
	Mirek uint16
	// Brightness: 0-254
	Bri uint8
}

// NewColorFromHS creates a Color from hue and saturation
func NewColorFromHS(hue uint16, sat, bri uint8) *Color {
	return &Color{Mode: ColorModeHS, Hue: hue, Sat: sat, Bri: bri}
}

// NewColorFromXY creates a Color from XY coordinates
func NewColorFromXY(x, y float64, bri uint8) *Color {
	return &Color{Mode: ColorModeXY, X: x, Y: y, Bri: bri}
}

// NewColorFromMirek creates a Color from a color temperature
func NewColorFromMirek(mirek uint16, bri uint8) *Color {
	return &Color{Mode: ColorModeCT, Mirek: mirek, Bri: bri}
}

// RGB returns the color as RGB values (0-255 each)
func (c *Color) RGB() (r, g, b uint8) {
	switch c.Mode {
	case ColorModeHS:
		return hsvToRGB(c.Hue, c.Sat, c.Bri)
	case ColorModeXY:
		return xyToRGB(c.X, c.Y, c.Bri)
	case ColorModeCT:
		return mirekToRGB(c.Mirek, c.Bri)
	default:
		return 255, 255, 255
	}
}

// HexString returns the color as "#RRGGBB"
func (c *Color) HexString() string {
	r, g, b := c.RGB()
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

func hsvToRGB(hue uint16, sat, bri uint8) (r, g, b uint8) {
	h := float64(hue) / 65535.0 * 360.0
	s := float64(sat) / 254.0
	v := float64(bri) / 254.0

	if s == 0 {
		val := uint8(math.Min(v, 1) * 255)
		return val, val, val
	}

	h = math.Mod(h, 360) / 60
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var rf, gf, bf float64
	switch int(i) {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}

	return clampTo255(rf), clampTo255(gf), clampTo255(bf)
}

// xyToRGB uses the Wide RGB D65 matrix the bulbs are specified against
func xyToRGB(x, y float64, bri uint8) (r, g, b uint8) {
	if y == 0 {
		return 255, 255, 255
	}

	Y := float64(bri) / 254.0
	X := (Y / y) * x
	Z := (Y / y) * (1 - x - y)

	rf := X*1.656492 - Y*0.354851 - Z*0.255038
	gf := -X*0.707196 + Y*1.655397 + Z*0.036152
	bf := X*0.051713 - Y*0.121364 + Z*1.011530

	return clampTo255(reverseGamma(rf)), clampTo255(reverseGamma(gf)), clampTo255(reverseGamma(bf))
}

// mirekToRGB follows Tanner Helland's blackbody approximation
func mirekToRGB(mirek uint16, bri uint8) (r, g, b uint8) {
	if mirek == 0 {
		return 255, 255, 255
	}
	temp := 1000000.0 / float64(mirek) / 100.0

	var rf, gf, bf float64
	if temp <= 66 {
		rf = 255
		gf = clampFloat(99.4708025861*math.Log(temp)-161.1195681661, 0, 255)
	} else {
		rf = clampFloat(329.698727446*math.Pow(temp-60, -0.1332047592), 0, 255)
		gf = clampFloat(288.1221695283*math.Pow(temp-60, -0.0755148492), 0, 255)
	}

	switch {
	case temp >= 66:
		bf = 255
	case temp <= 19:
		bf = 0
	default:
		bf = clampFloat(138.5177312231*math.Log(temp-10)-305.0447927307, 0, 255)
	}

	scale := math.Min(float64(bri)/254.0, 1)
	return uint8(rf * scale), uint8(gf * scale), uint8(bf * scale)
}

func reverseGamma(value float64) float64 {
	if value <= 0.0031308 {
		return 12.92 * value
	}
	return 1.055*math.Pow(value, 1.0/2.4) - 0.055
}

func clampTo255(value float64) uint8 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 255
	}
	return uint8(value * 255)
}

func clampFloat(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
