package ensemble

import (
	"fmt"
	"strconv"
)

// MinRunIDWidth is the narrowest run identifier.
const MinRunIDWidth = 4

// SamplePoint is one row of the sample matrix.
type SamplePoint struct {
	Index  int
	Coords []float64
}

// Member is one simulation configuration.
type Member struct {
	Index  int
	RunID  string
	Values []float64
	// Command is the launch line handed to the job scheduler.
	Command string
}

// RunIDWidth is the zero padding width for an ensemble of n members.
// It never goes below MinRunIDWidth, so identifiers sort lexicographically in numeric order.
func RunIDWidth(n int) int {
	width := MinRunIDWidth
	if n > 1 {
		if digits := len(strconv.Itoa(n - 1)); digits > width {
			width = digits
		}
	}

	return width
}

// FormatRunID pads index with zeros to width.
func FormatRunID(index, width int) string {
	return fmt.Sprintf("%0*d", width, index)
}

// FormatValue renders v as a plain decimal, never in exponent form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Points wraps the rows of a sample matrix with their indices.
func Points(matrix [][]float64) []SamplePoint {
	out := make([]SamplePoint, len(matrix))
	for i, coords := range matrix {
		out[i] = SamplePoint{Index: i, Coords: coords}
	}

	return out
}
