package components

import "strings"

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders the last width values, each clamped to [0, 1], as a
// row of block characters. Short histories are left-padded with spaces.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", width-len(values)))
	top := len(sparkBlocks) - 1
	for _, v := range values {
		switch {
		case v < 0 || v != v:
			v = 0
		case v > 1:
			v = 1
		}
		b.WriteRune(sparkBlocks[int(v*float64(top)+0.5)])
	}
	return b.String()
}
