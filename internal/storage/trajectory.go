package storage

import (
	"encoding/csv"
	"fmt"
	"math/cmplx"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/lattice"
	"github.com/san-kum/wpsim/internal/torus"
	"github.com/san-kum/wpsim/internal/trajectory"
)

var trajectoryHeader = []string{"step", "t", "re", "im", "wrapped_re", "wrapped_im", "break"}

// SaveTrajectory persists tr with the config that produced it and any
// metrics the caller computed. The CSV has
// one row per point; break=1 marks a point that must not be connected to the
// previous one after wrapping.
func (s *Store) SaveTrajectory(cfg *config.Config, tr *trajectory.Trajectory, metrics map[string]float64, tags map[string]string) (string, error) {
	wrapped := tr.Wrap(cfg.Lattice.P, cfg.Lattice.Q, cfg.WrapThreshold)
	ic := cfg.Integrate

	meta := &RunMetadata{
		Kind:          KindTrajectory,
		Lattice:       cfg.Lattice,
		WrapThreshold: cfg.WrapThreshold,
		Integrate:     &ic,
		Status:        tr.Status(),
		Points:        tr.Len(),
		Breaks:        wrapped.Breaks(),
		Metrics:       metrics,
		Tags:          tags,
	}
	if tr.Halt != nil {
		meta.Halt = &HaltInfo{
			Reason:   tr.Halt.Reason,
			Position: config.C(tr.Halt.Position),
			Time:     tr.Halt.Time,
			Step:     tr.Halt.Step,
		}
	}

	runDir, err := s.create(meta)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, trajectoryFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(trajectoryHeader); err != nil {
		return "", err
	}

	k := 0
	pendingBreak := false
	for _, sample := range wrapped {
		if sample.Break {
			pendingBreak = true
			continue
		}
		z := tr.Points[k]
		row := []string{
			strconv.Itoa(k),
			formatFloat(tr.Times[k]),
			formatFloat(real(z)),
			formatFloat(imag(z)),
			formatFloat(real(sample.Z)),
			formatFloat(imag(sample.Z)),
			formatBool(pendingBreak),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
		pendingBreak = false
		k++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// TrajectoryRecord is a stored trajectory with its wrapped rendering.
type TrajectoryRecord struct {
	Meta       *RunMetadata
	Params     lattice.Params
	Trajectory *trajectory.Trajectory
	Wrapped    torus.Wrapped
}

func (s *Store) LoadTrajectory(runID string) (*TrajectoryRecord, error) {
	meta, err := s.loadKind(runID, KindTrajectory)
	if err != nil {
		return nil, err
	}
	params, err := lattice.NewParams(meta.Lattice.P, meta.Lattice.Q, meta.Lattice.N)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	records, err := readCSV(filepath.Join(s.Dir(runID), trajectoryFile), len(trajectoryHeader))
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	tr := &trajectory.Trajectory{
		Points: make([]complex128, 0, len(records)),
		Times:  make([]float64, 0, len(records)),
	}
	wrapped := make(torus.Wrapped, 0, len(records))

	for line, rec := range records {
		vals, err := parseFloats(rec[1:6])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", runID, line+2, err)
		}
		tr.Times = append(tr.Times, vals[0])
		tr.Points = append(tr.Points, complex(vals[1], vals[2]))
		if rec[6] == "1" {
			wrapped = append(wrapped, torus.Sample{Z: cmplx.NaN(), Break: true})
		}
		wrapped = append(wrapped, torus.Sample{Z: complex(vals[3], vals[4])})
	}

	if h := meta.Halt; h != nil {
		tr.Halt = &trajectory.Halt{
			Reason:   h.Reason,
			Position: h.Position.Value(),
			Time:     h.Time,
			Step:     h.Step,
		}
	}

	return &TrajectoryRecord{Meta: meta, Params: params, Trajectory: tr, Wrapped: wrapped}, nil
}
