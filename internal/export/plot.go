package export

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/torus"
)

var (
	maskColor  = color.Gray{Y: 40}
	traceColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	poleColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// logGrid adapts a field.Grid to plotter.GridXYZ, showing log10(1+|F|)
// and NaN for masked cells.
type logGrid struct {
	g *field.Grid
}

func (l logGrid) Dims() (c, r int) { return l.g.Nx, l.g.Ny }
func (l logGrid) X(c int) float64   { return l.g.X[c][0] }
func (l logGrid) Y(r int) float64   { return l.g.Y[0][r] }

func (l logGrid) Z(c, r int) float64 {
	m := l.g.Magnitude(c, r)
	if math.IsNaN(m) {
		return m
	}
	return math.Log10(1 + m)
}

// FieldPlot builds a heat map of the grid with each wrapped trajectory drawn
// on top, segment by segment. Masked cells are painted flat grey.
func FieldPlot(g *field.Grid, traces ...torus.Wrapped) (*plot.Plot, error) {
	if g.Nx < 2 || g.Ny < 2 {
		return nil, fmt.Errorf("export: heat map needs at least 2x2 cells, got %dx%d", g.Nx, g.Ny)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("log10(1+|%s|)  %s", g.Which, g.Params)
	p.X.Label.Text = "Re z"
	p.Y.Label.Text = "Im z"

	hm := plotter.NewHeatMap(logGrid{g}, palette.Heat(64, 1))
	hm.NaN = maskColor
	if lo, hi, ok := g.MagnitudeRange(); ok {
		hm.Min, hm.Max = math.Log10(1+lo), math.Log10(1+hi)
		if hm.Max <= hm.Min {
			hm.Max = hm.Min + 1
		}
	} else {
		hm.Min, hm.Max = 0, 1
	}
	p.Add(hm)

	for _, tr := range traces {
		for _, seg := range tr.Segments() {
			line, err := plotter.NewLine(toXYs(seg))
			if err != nil {
				return nil, err
			}
			line.LineStyle.Color = traceColor
			line.LineStyle.Width = vg.Points(1)
			p.Add(line)
		}
	}

	poles, err := plotter.NewScatter(toXYs(g.Params.CellPoles()))
	if err != nil {
		return nil, err
	}
	poles.GlyphStyle.Shape = draw.CrossGlyph{}
	poles.GlyphStyle.Color = poleColor
	poles.GlyphStyle.Radius = vg.Points(4)
	p.Add(poles)

	p.X.Min, p.X.Max = 0, g.Params.P()
	p.Y.Min, p.Y.Max = 0, g.Params.Q()
	return p, nil
}

// WritePNG renders p as a PNG of the given size.
func WritePNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func toXYs(zs []complex128) plotter.XYs {
	xys := make(plotter.XYs, len(zs))
	for i, z := range zs {
		xys[i].X, xys[i].Y = real(z), imag(z)
	}
	return xys
}
