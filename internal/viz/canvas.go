package viz

import (
	"math"
	"strings"

	"github.com/san-kum/wpsim/internal/torus"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels; out-of-range coordinates are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CellView projects the fundamental cell [0,p]×[0,q] onto a canvas with the
// imaginary axis pointing up.
type CellView struct {
	*Canvas
	p, q float64
}

func NewCellView(w, h int, p, q float64) *CellView {
	return &CellView{Canvas: NewCanvas(w, h), p: p, q: q}
}

// Project maps a wrapped point to sub-pixel coordinates.
func (v *CellView) Project(z complex128) (x, y int) {
	maxX, maxY := float64(v.Width*2-1), float64(v.Height*4-1)
	x = int(math.Round(real(z) / v.p * maxX))
	y = int(math.Round((1 - imag(z)/v.q) * maxY))
	return x, y
}

// PlotWrapped draws each segment of w as a polyline. Points on either side
// of a break are never joined.
func (v *CellView) PlotWrapped(w torus.Wrapped) {
	for _, seg := range w.Segments() {
		x0, y0 := v.Project(seg[0])
		v.Set(x0, y0)
		for _, z := range seg[1:] {
			x1, y1 := v.Project(z)
			v.DrawLine(x0, y0, x1, y1)
			x0, y0 = x1, y1
		}
	}
}

// MarkPoles draws a small cross at each wrapped lattice point.
func (v *CellView) MarkPoles(poles []complex128) {
	for _, z := range poles {
		x, y := v.Project(z)
		for d := -1; d <= 1; d++ {
			v.Set(x+d, y)
			v.Set(x, y+d)
		}
	}
}

// Marker draws a filled 3x3 dot at z.
func (v *CellView) Marker(z complex128) {
	x, y := v.Project(z)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			v.Set(x+dx, y+dy)
		}
	}
}
