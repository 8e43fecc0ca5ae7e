package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/trajectory"
)

var (
	ErrNotFound  = errors.New("storage: run not found")
	ErrWrongKind = errors.New("storage: run has a different kind")
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
	fieldFile      = "field.csv"
)

type Kind string

const (
	KindTrajectory Kind = "trajectory"
	KindField      Kind = "field"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// HaltInfo is the JSON form of trajectory.Halt.
type HaltInfo struct {
	Reason   trajectory.Status `json:"reason"`
	Position config.Complex    `json:"position"`
	Time     float64           `json:"time"`
	Step     int               `json:"step"`
}

type RunMetadata struct {
	ID            string               `json:"id"`
	Kind          Kind                 `json:"kind"`
	Timestamp     time.Time            `json:"timestamp"`
	Lattice       config.LatticeConfig `json:"lattice"`
	WrapThreshold float64              `json:"wrap_threshold,omitempty"`

	Integrate *config.IntegrateConfig `json:"integrate,omitempty"`
	Status    trajectory.Status       `json:"status,omitempty"`
	Halt      *HaltInfo               `json:"halt,omitempty"`
	Points    int                     `json:"points,omitempty"`
	Breaks    int                     `json:"breaks,omitempty"`

	Field         *config.FieldConfig `json:"field,omitempty"`
	ValidFraction float64             `json:"valid_fraction,omitempty"`

	Metrics map[string]float64 `json:"metrics,omitempty"`
	Tags    map[string]string  `json:"tags,omitempty"`
}

func newRunID(kind Kind) string {
	return fmt.Sprintf("%s_%s", kind, uuid.NewString()[:8])
}

func (s *Store) create(meta *RunMetadata) (string, error) {
	meta.ID = newRunID(meta.Kind)
	meta.Timestamp = time.Now()

	runDir := s.Dir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	return runDir, nil
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns every readable run, newest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) loadKind(runID string, kind Kind) (*RunMetadata, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	if meta.Kind != kind {
		return nil, fmt.Errorf("%w: %s is %s, want %s", ErrWrongKind, runID, meta.Kind, kind)
	}
	return meta, nil
}
