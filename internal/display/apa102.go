package display

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

// DefaultSPISpeed is the clock used when none is configured.
const DefaultSPISpeed = 4 * physic.MegaHertz

// MaxGlobalBrightness is the 5-bit APA102 per-LED current limit.
const MaxGlobalBrightness = 31

// Tx is the part of a periph SPI connection the strip needs.
type Tx interface {
	Tx(w, r []byte) error
}

// APA102 drives a chain of APA102 (DotStar) LEDs. Each frame is a 4-byte
// zero start frame, one 0xE0|brightness,B,G,R word per LED, then enough
// 0xFF end bytes to clock data through the whole chain.
type APA102 struct {
	conn       Tx
	closer     func() error
	brightness uint8
	buf        []byte
	n          int
}

// NewAPA102 wraps an already-connected SPI link driving n LEDs.
func NewAPA102(c Tx, n int, brightness uint8) *APA102 {
	if brightness > MaxGlobalBrightness {
		brightness = MaxGlobalBrightness
	}
	end := (n + 15) / 16
	if end < 4 {
		end = 4
	}
	a := &APA102{
		conn:       c,
		brightness: brightness,
		buf:        make([]byte, 4+4*n+end),
		n:          n,
	}
	for i := 0; i < n; i++ {
		a.buf[4+4*i] = 0xE0 | brightness
	}
	for i := 4 + 4*n; i < len(a.buf); i++ {
		a.buf[i] = 0xFF
	}
	return a
}

// OpenAPA102 initializes the host drivers and opens the named SPI port
// (empty selects the first one) in mode 0.
func OpenAPA102(port string, speed physic.Frequency, n int) (*APA102, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: host init: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("display: open spi %q: %w", port, err)
	}
	if speed <= 0 {
		speed = DefaultSPISpeed
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("display: connect spi %q: %w", port, err)
	}
	a := NewAPA102(c, n, MaxGlobalBrightness)
	a.closer = p.Close
	return a, nil
}

// Len returns the LED count.
func (a *APA102) Len() int { return a.n }

// SetPixel stages one LED.
func (a *APA102) SetPixel(i int, c pattern.Color) {
	if i < 0 || i >= a.n {
		return
	}
	w := a.buf[4+4*i:]
	w[1], w[2], w[3] = c.B, c.G, c.R
}

// Show writes the staged frame to the chain.
func (a *APA102) Show() error {
	if err := a.conn.Tx(a.buf, nil); err != nil {
		return fmt.Errorf("display: spi tx: %w", err)
	}
	return nil
}

// ShowColor fills the chain with c and writes it.
func (a *APA102) ShowColor(c pattern.Color) error {
	for i := 0; i < a.n; i++ {
		a.SetPixel(i, c)
	}
	return a.Show()
}

// Close blanks the strip and releases the SPI port if OpenAPA102 opened it.
func (a *APA102) Close() error {
	err := a.ShowColor(pattern.Black)
	if a.closer != nil {
		if cerr := a.closer(); err == nil {
			err = cerr
		}
	}
	return err
}
