// Package pattern holds the visual pulses a firefly renders during a flash
// and the compositor that plays them onto a brightness grid or an
// addressable RGB strip.
package pattern

import "time"

// Default pulse parameters used when a pattern omits them.
const (
	DefaultGridDuration  = 200 * time.Millisecond
	DefaultGridLuminance = 255
	DefaultStripDuration = 500 * time.Millisecond
	DefaultStripWidth    = 10
	DefaultStripColor    = 0x2A0082
)

// Color is an 8-bit-per-channel RGB color.
type Color struct {
	R, G, B uint8
}

// Black is the all-off color.
var Black = Color{}

// RGB unpacks a 24-bit 0xRRGGBB value. Bits above 24 are ignored.
func RGB(packed uint32) Color {
	return Color{
		R: uint8(packed >> 16),
		G: uint8(packed >> 8),
		B: uint8(packed),
	}
}

// Packed returns the color as 0xRRGGBB.
func (c Color) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// GridPulse is a uniform flash on the brightness grid that starts at Peak
// after Delay and decays linearly to zero over Duration.
type GridPulse struct {
	Duration time.Duration
	Delay    time.Duration
	Peak     float64 // [0,1]
}

// NewGridPulse builds a GridPulse from a 0..255 luminosity.
func NewGridPulse(duration, delay time.Duration, luminosity uint8) GridPulse {
	return GridPulse{
		Duration: duration,
		Delay:    delay,
		Peak:     float64(luminosity) / 255,
	}
}

// StripPulse is a light front that travels the strip over Duration after
// Delay, trailing a linear fade Width pixels long.
type StripPulse struct {
	Duration time.Duration
	Delay    time.Duration
	Width    float64
	Color    Color
}

// NewStripPulse builds a StripPulse from a packed 24-bit color.
func NewStripPulse(duration, delay time.Duration, width int, rgb uint32) StripPulse {
	return StripPulse{
		Duration: duration,
		Delay:    delay,
		Width:    float64(width),
		Color:    RGB(rgb),
	}
}
