package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/wpsim/internal/config"
)

// ExportData is the JSON dump of a stored trajectory.
type ExportData struct {
	Meta    *RunMetadata     `json:"meta"`
	Times   []float64        `json:"times"`
	Points  []config.Complex `json:"points"`
	Wrapped []config.Complex `json:"wrapped"`
	Breaks  []int            `json:"breaks"`
}

// ExportJSON writes a trajectory run as indented JSON. Breaks lists the
// indices of points that start a new wrapped segment.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	rec, err := s.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Meta:    rec.Meta,
		Times:   rec.Trajectory.Times,
		Points:  make([]config.Complex, len(rec.Trajectory.Points)),
		Wrapped: make([]config.Complex, 0, len(rec.Trajectory.Points)),
		Breaks:  []int{},
	}
	for i, z := range rec.Trajectory.Points {
		data.Points[i] = config.C(z)
	}
	for _, sample := range rec.Wrapped {
		if sample.Break {
			data.Breaks = append(data.Breaks, len(data.Wrapped))
			continue
		}
		data.Wrapped = append(data.Wrapped, config.C(sample.Z))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
