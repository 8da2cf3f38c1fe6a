package ensemble

import "github.com/askiada/go-tipping-ensemble/pkg/schema"

// Rescale maps u in [0,1) affinely onto r: lower + (upper-lower)*u.
// A degenerate range collapses to its bound.
func Rescale(r schema.Range, u float64) float64 {
	return r.Lower + (r.Upper-r.Lower)*u
}
