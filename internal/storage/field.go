package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/san-kum/wpsim/internal/config"
	"github.com/san-kum/wpsim/internal/field"
	"github.com/san-kum/wpsim/internal/lattice"
)

var fieldHeader = []string{"i", "j", "x", "y", "re", "im", "valid"}

// SaveField persists a sampled grid in row-major (i, j) order.
func (s *Store) SaveField(cfg *config.Config, g *field.Grid) (string, error) {
	fc := cfg.Field
	fc.Nx, fc.Ny = g.Nx, g.Ny
	fc.Which = g.Which.String()
	fc.PoleEps = g.PoleEps

	meta := &RunMetadata{
		Kind: KindField,
		Lattice: config.LatticeConfig{
			P: g.Params.P(),
			Q: g.Params.Q(),
			N: g.Params.N(),
		},
		Field:         &fc,
		ValidFraction: g.ValidFraction(),
	}

	runDir, err := s.create(meta)
	if err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, fieldFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fieldHeader); err != nil {
		return "", err
	}
	for i := 0; i < g.Nx; i++ {
		for j := 0; j < g.Ny; j++ {
			row := []string{
				strconv.Itoa(i),
				strconv.Itoa(j),
				formatFloat(g.X[i][j]),
				formatFloat(g.Y[i][j]),
				formatFloat(real(g.F[i][j])),
				formatFloat(imag(g.F[i][j])),
				formatBool(g.M[i][j]),
			}
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// LoadField rebuilds the grid of a stored field run.
func (s *Store) LoadField(runID string) (*field.Grid, error) {
	meta, err := s.loadKind(runID, KindField)
	if err != nil {
		return nil, err
	}
	if meta.Field == nil {
		return nil, fmt.Errorf("storage: %s: missing field section", runID)
	}
	params, err := lattice.NewParams(meta.Lattice.P, meta.Lattice.Q, meta.Lattice.N)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	which, err := lattice.ParseFunction(meta.Field.Which)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}

	nx, ny := meta.Field.Nx, meta.Field.Ny
	records, err := readCSV(filepath.Join(s.Dir(runID), fieldFile), len(fieldHeader))
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) != nx*ny {
		return nil, fmt.Errorf("storage: %s: %d cells, want %dx%d", runID, len(records), nx, ny)
	}

	g := &field.Grid{
		Nx:      nx,
		Ny:      ny,
		X:       make([][]float64, nx),
		Y:       make([][]float64, nx),
		F:       make([][]complex128, nx),
		M:       make([][]bool, nx),
		Which:   which,
		Params:  params,
		PoleEps: meta.Field.PoleEps,
	}
	for i := 0; i < nx; i++ {
		g.X[i] = make([]float64, ny)
		g.Y[i] = make([]float64, ny)
		g.F[i] = make([]complex128, ny)
		g.M[i] = make([]bool, ny)
	}

	for line, rec := range records {
		i, err1 := strconv.Atoi(rec[0])
		j, err2 := strconv.Atoi(rec[1])
		if err1 != nil || err2 != nil || i < 0 || i >= nx || j < 0 || j >= ny {
			return nil, fmt.Errorf("storage: %s line %d: bad cell index", runID, line+2)
		}
		vals, err := parseFloats(rec[2:6])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", runID, line+2, err)
		}
		g.X[i][j], g.Y[i][j] = vals[0], vals[1]
		g.F[i][j] = complex(vals[2], vals[3])
		g.M[i][j] = rec[6] == "1"
	}
	return g, nil
}
