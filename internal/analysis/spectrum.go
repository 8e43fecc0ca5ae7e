package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/san-kum/wpsim/internal/trajectory"
)

// MinSpectrumSamples is the shortest trajectory PowerSpectrum accepts.
const MinSpectrumSamples = 8

var ErrTooShort = errors.New("analysis: trajectory too short")

// Spectrum is the power of z(t) per frequency, in cycles per unit time.
// Negative frequencies are clockwise rotation.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum resamples the trajectory onto a uniform time grid, removes
// the mean and returns the normalized power sorted by frequency.
func PowerSpectrum(tr *trajectory.Trajectory) (*Spectrum, error) {
	n := tr.Len()
	if n < MinSpectrumSamples {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrTooShort, n, MinSpectrumSamples)
	}
	t0, t1 := tr.Times[0], tr.Times[n-1]
	if !(t1 > t0) {
		return nil, fmt.Errorf("%w: no elapsed time", ErrTooShort)
	}

	seq, err := resample(tr.Times, tr.Points, n)
	if err != nil {
		return nil, err
	}
	var mean complex128
	for _, z := range seq {
		mean += z
	}
	mean /= complex(float64(n), 0)
	for i := range seq {
		seq[i] -= mean
	}

	fft := fourier.NewCmplxFFT(n)
	coeff := fft.Coefficients(nil, seq)
	step := (t1 - t0) / float64(n-1)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return fft.Freq(idx[a]) < fft.Freq(idx[b]) })

	s := &Spectrum{Freqs: make([]float64, n), Power: make([]float64, n)}
	norm := float64(n) * float64(n)
	for k, i := range idx {
		s.Freqs[k] = fft.Freq(i) / step
		a := cmplx.Abs(coeff[i])
		s.Power[k] = a * a / norm
	}
	return s, nil
}

// Dominant returns the strongest non-zero frequency and its power.
func (s *Spectrum) Dominant() (freq, power float64) {
	best := -1
	for i, f := range s.Freqs {
		if f == 0 {
			continue
		}
		if best < 0 || s.Power[i] > s.Power[best] {
			best = i
		}
	}
	if best < 0 {
		return 0, 0
	}
	return s.Freqs[best], s.Power[best]
}

// Positive returns the power at strictly positive frequencies.
func (s *Spectrum) Positive() (freqs, power []float64) {
	start := sort.SearchFloat64s(s.Freqs, 0)
	for start < len(s.Freqs) && s.Freqs[start] <= 0 {
		start++
	}
	return s.Freqs[start:], s.Power[start:]
}

func resample(times []float64, points []complex128, n int) ([]complex128, error) {
	re := make([]float64, len(points))
	im := make([]float64, len(points))
	for i, z := range points {
		re[i], im[i] = real(z), imag(z)
	}
	var fre, fim interp.PiecewiseLinear
	if err := fre.Fit(times, re); err != nil {
		return nil, fmt.Errorf("analysis: resample: %w", err)
	}
	if err := fim.Fit(times, im); err != nil {
		return nil, fmt.Errorf("analysis: resample: %w", err)
	}

	grid := floats.Span(make([]float64, n), times[0], times[len(times)-1])
	out := make([]complex128, n)
	for i, t := range grid {
		out[i] = complex(fre.Predict(t), fim.Predict(t))
	}
	return out, nil
}
