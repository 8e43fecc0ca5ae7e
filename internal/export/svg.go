package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/wpsim/internal/torus"
)

// SVGOptions controls TrajectoryToSVG. Zero values fall back to defaults.
type SVGOptions struct {
	Width       int
	Height      int
	StrokeColor string
	Poles       []complex128
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = 880
	}
	if o.Height <= 0 {
		o.Height = 400
	}
	if o.StrokeColor == "" {
		o.StrokeColor = "#00ff00"
	}
	return o
}

// TrajectoryToSVG draws a wrapped trajectory inside the fundamental cell
// [0,p]×[0,q]. Every segment between breaks starts a new subpath, so no line
// is drawn across the cell at a boundary crossing. The imaginary axis points
// up.
func TrajectoryToSVG(w torus.Wrapped, p, q float64, opts SVGOptions) string {
	opts = opts.withDefaults()
	width, height := float64(opts.Width), float64(opts.Height)

	toX := func(x float64) float64 { return x / p * width }
	toY := func(y float64) float64 { return height - y/q*height }

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<rect x="0" y="0" width="%d" height="%d" fill="none" stroke="#444444" stroke-width="1"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Width, opts.Height))

	if len(opts.Poles) > 0 {
		sb.WriteString(`<g fill="#ff5555">` + "\n")
		for _, z := range opts.Poles {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4"/>`+"\n", toX(real(z)), toY(imag(z))))
		}
		sb.WriteString("</g>\n")
	}

	segments := w.Segments()
	if len(segments) > 0 {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, opts.StrokeColor))
		for si, seg := range segments {
			if si > 0 {
				sb.WriteString(" ")
			}
			for i, z := range seg {
				cmd := " L"
				if i == 0 {
					cmd = "M"
				}
				sb.WriteString(fmt.Sprintf("%s%.1f,%.1f", cmd, toX(real(z)), toY(imag(z))))
			}
		}
		sb.WriteString(`"/>` + "\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
