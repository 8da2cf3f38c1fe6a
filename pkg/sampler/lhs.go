// Package sampler builds Latin hypercube designs in the unit hypercube.
//
// For every dimension the N coordinates fall into the N equal strata [k/N, (k+1)/N), one per
// stratum, in an independently shuffled order. Nothing beyond this marginal stratification is
// guaranteed: there is no space-filling criterion and no correlation control across dimensions.
package sampler

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

var (
	ErrInvalidSamples    = errors.New("sample count must be greater than 0")
	ErrInvalidDimensions = errors.New("dimensions must be greater than 0")
	ErrUnknownMode       = errors.New("unknown sampling mode")
)

// Mode selects where a sample sits inside its stratum.
type Mode string

const (
	// Jittered draws a uniform offset inside each stratum.
	Jittered Mode = "jittered"
	// Centered puts every sample at its stratum midpoint.
	Centered Mode = "centered"
)

// ParseMode converts a configuration string to a Mode. The empty string is Jittered.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Jittered:
		return Jittered, nil
	case Centered:
		return Centered, nil
	default:
		return "", errors.Wrapf(ErrUnknownMode, "%q", s)
	}
}

// Sampler produces n points in [0,1)^d.
type Sampler interface {
	Sample(n, d int) ([][]float64, error)
}

// LatinHypercube is a seeded Latin hypercube sampler. It is not safe for concurrent use.
type LatinHypercube struct {
	rnd  *rand.Rand
	mode Mode
}

// New creates a LatinHypercube drawing from a source seeded with seed.
// The same seed, mode and (n, d) always yield the same design.
func New(seed int64, mode Mode) *LatinHypercube {
	if mode == "" {
		mode = Jittered
	}

	return &LatinHypercube{
		rnd:  rand.New(rand.NewSource(seed)), //nolint:gosec // experimental design, not security
		mode: mode,
	}
}

// Sample returns an n x d matrix, one row per point.
func (l *LatinHypercube) Sample(n, d int) ([][]float64, error) {
	if n <= 0 {
		return nil, errors.Wrapf(ErrInvalidSamples, "got %d", n)
	}

	if d <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "got %d", d)
	}

	points := make([][]float64, n)
	backing := make([]float64, n*d)

	for i := range points {
		points[i] = backing[i*d : (i+1)*d : (i+1)*d]
	}

	for dim := range d {
		for row, stratum := range l.rnd.Perm(n) {
			points[row][dim] = l.place(stratum, n)
		}
	}

	return points, nil
}

// place returns a coordinate inside stratum k of n.
func (l *LatinHypercube) place(k, n int) float64 {
	offset := 0.5
	if l.mode == Jittered {
		offset = l.rnd.Float64()
	}

	v := (float64(k) + offset) / float64(n)

	// rounding must not push the value into the next stratum
	upper := float64(k+1) / float64(n)
	if v >= upper {
		v = math.Nextafter(upper, 0)
	}

	return v
}

// Stratum returns the stratum index of coordinate u in a design of n points.
func Stratum(u float64, n int) int {
	k := int(math.Floor(u * float64(n)))
	if float64(k)/float64(n) > u {
		k--
	}

	if k < n-1 && float64(k+1)/float64(n) <= u {
		k++
	}

	return k
}

var _ Sampler = (*LatinHypercube)(nil)
