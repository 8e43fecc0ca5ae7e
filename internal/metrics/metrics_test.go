package metrics

import (
	"context"
	"io"
	"math"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/trajectory"
)

func line() *trajectory.Trajectory {
	return &trajectory.Trajectory{
		Points: []complex128{1 + 1i, 4 + 5i, 4 + 5i, 4 + 8i},
		Times:  []float64{0, 1, 2, 2.5},
	}
}

func TestPathLength(t *testing.T) {
	got := Evaluate(line(), NewPathLength())["path_length"]
	if got != 8 {
		t.Errorf("expected 8, got %f", got)
	}
}

func TestMaxSpeed(t *testing.T) {
	got := Evaluate(line(), NewMaxSpeed())["max_speed"]
	if math.Abs(got-6) > 1e-12 {
		t.Errorf("expected 6, got %f", got)
	}
}

func TestMinPoleDistance(t *testing.T) {
	params := lattice.MustParams(11, 5, 2)
	tr := &trajectory.Trajectory{
		Points: []complex128{5.5 + 2.5i, 10.7 + 4.6i, 3 + 1i},
		Times:  []float64{0, 1, 2},
	}
	got := Evaluate(tr, NewMinPoleDistance(params))["min_pole_distance"]
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("expected 0.5 to the corner image, got %f", got)
	}
}

func TestStability(t *testing.T) {
	s := NewStability(5)
	if s.Value() != 1.0 {
		t.Error("empty stability should be 1")
	}
	got := Evaluate(line(), s)["stability"]
	if got != 0.25 {
		t.Errorf("expected 0.25, got %f", got)
	}
}

func TestEvaluate_ResetsBetweenRuns(t *testing.T) {
	m := NewPathLength()
	Evaluate(line(), m)
	if got := Evaluate(line(), m)["path_length"]; got != 8 {
		t.Errorf("expected metric reset between runs, got %f", got)
	}
}

func TestStandard(t *testing.T) {
	params := lattice.MustParams(11, 5, 3)
	tr, err := trajectory.Integrate(params, 5.5, 1i, trajectory.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	vals := Evaluate(tr, Standard(params)...)
	for _, name := range []string{"path_length", "max_speed", "min_pole_distance", "stability"} {
		if _, ok := vals[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if vals["min_pole_distance"] < trajectory.DefaultConfig().PoleEps {
		t.Errorf("completed run came within pole_eps: %f", vals["min_pole_distance"])
	}
}

func TestRecordTrajectory(t *testing.T) {
	before := testutil.ToFloat64(trajectoriesTotal.WithLabelValues("pole_halt"))
	tr := &trajectory.Trajectory{
		Points: []complex128{0.01},
		Times:  []float64{0},
		Halt:   &trajectory.Halt{Reason: trajectory.PoleHalt, Position: 0.01},
	}
	RecordTrajectory(tr, time.Millisecond)

	if got := testutil.ToFloat64(trajectoriesTotal.WithLabelValues("pole_halt")); got != before+1 {
		t.Errorf("expected counter %f, got %f", before+1, got)
	}
}

func TestRecordField(t *testing.T) {
	g, err := field.Sample(lattice.MustParams(1, 1, 1), lattice.WP, 4, 4, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	before := testutil.ToFloat64(fieldCells.WithLabelValues("masked"))
	RecordField(g, time.Millisecond)

	masked := float64(16 - g.ValidCount())
	if got := testutil.ToFloat64(fieldCells.WithLabelValues("masked")); got != before+masked {
		t.Errorf("expected %f masked cells, got %f", before+masked, got)
	}
}

func TestServe(t *testing.T) {
	srv, err := Serve("127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Shutdown(context.Background())

	RecordTrajectory(&trajectory.Trajectory{Points: []complex128{1}, Times: []float64{0}}, time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "wpsim_trajectories_total") {
		t.Error("metrics endpoint missing wpsim_trajectories_total")
	}
}
