package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
)

func TestTrajectoryToSVG_SplitsAtBreaks(t *testing.T) {
	points := []complex128{10 + 1i, 10.9 + 1i, 11.2 + 1i, 11.5 + 1i, 12 + 6.2i}
	w := torus.WrapWithBreaks(points, 11, 5, torus.DefaultWrapThreshold)

	svg := TrajectoryToSVG(w, 11, 5, SVGOptions{Width: 110, Height: 50, Poles: []complex128{0}})

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("not a complete svg document")
	}
	if got := strings.Count(svg, "M"); got != w.Breaks()+1 {
		t.Errorf("expected %d subpaths, got %d", w.Breaks()+1, got)
	}
	if !strings.Contains(svg, "M100.0,40.0 L109.0,40.0") {
		t.Errorf("first segment not scaled into the cell:\n%s", svg)
	}
	if !strings.Contains(svg, `<circle cx="0.0" cy="50.0"`) {
		t.Error("pole marker missing")
	}
}

func TestTrajectoryToSVG_Empty(t *testing.T) {
	svg := TrajectoryToSVG(torus.Wrapped{}, 11, 5, SVGOptions{})
	if strings.Contains(svg, "<path") {
		t.Error("empty trajectory should not produce a path")
	}
	if !strings.Contains(svg, `width="880"`) {
		t.Error("default width not applied")
	}
}

func TestWritePNG(t *testing.T) {
	params := lattice.MustParams(11, 5, 2)
	g, err := field.Sample(params, lattice.WP, 44, 20, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	cfg := trajectory.DefaultConfig()
	tr, err := trajectory.Integrate(params, 5.5, 1i, cfg)
	if err != nil {
		t.Fatal(err)
	}

	p, err := FieldPlot(g, tr.Wrap(11, 5, torus.DefaultWrapThreshold))
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WritePNG(&buf, p, 300, 150); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}
}

func TestFieldPlot_TooSmall(t *testing.T) {
	g, err := field.Sample(lattice.MustParams(1, 1, 1), lattice.WP, 1, 5, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := FieldPlot(g); err == nil {
		t.Error("expected error for a single-column grid")
	}
}
