// Package schema describes the per-run parameter vector of a coupled tipping element ensemble.
//
// A Schema is built from a Definition: a list of tipping elements, each with a threshold range
// and a timescale range, and a list of directed coupling edges between elements. Slots are laid
// out in a fixed order: every element threshold, then every coupling, then every element
// timescale. Elements listed in Definition.Exclude keep their slots but never take part in
// sampling; every slot that refers to an excluded element holds the fixed neutral value.
package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Role is the part a slot plays in the tipping model.
type Role string

const (
	RoleThreshold Role = "threshold-range"
	RoleCoupling  Role = "coupling-strength"
	RoleTimescale Role = "timescale"
)

// NotSampled is the SampleDim of a fixed slot.
const NotSampled = -1

// DefaultFixedValue is the neutral value given to fixed slots.
const DefaultFixedValue = 1.0

var (
	ErrInvalidRange    = errors.New("lower bound greater than upper bound")
	ErrUnknownElement  = errors.New("unknown tipping element")
	ErrDuplicateSlot   = errors.New("duplicate slot")
	ErrSelfCoupling    = errors.New("element cannot be coupled to itself")
	ErrNoElements      = errors.New("schema needs at least one element")
	ErrUnknownSlot     = errors.New("unknown slot")
	ErrSampleDimension = errors.New("sample dimensions are not contiguous")
)

// Element is a tipping element, for instance GIS (Greenland Ice Sheet).
type Element string

// Range is a closed physical interval.
type Range struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Lower, r.Upper)
}

// Validate fails when Lower > Upper.
func (r Range) Validate() error {
	if r.Lower > r.Upper {
		return errors.Wrapf(ErrInvalidRange, "%s", r)
	}

	return nil
}

// Midpoint returns the centre of the interval.
func (r Range) Midpoint() float64 {
	return (r.Lower + r.Upper) / 2
}

// ParameterSlot is one entry of the per-run parameter vector.
type ParameterSlot struct {
	Name       string
	Role       Role
	Range      Range
	Sampled    bool
	FixedValue float64
	// SampleDim is the column of the sample matrix feeding this slot, NotSampled otherwise.
	SampleDim int
	// Elements lists the tipping elements the slot refers to: one for thresholds and timescales,
	// source then target for couplings.
	Elements []Element
}

// SlotError attaches the slot name to a schema error.
type SlotError struct {
	Slot string
	Err  error
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("slot %q: %v", e.Slot, e.Err)
}

func (e *SlotError) Unwrap() error {
	return e.Err
}

// Schema is an immutable, ordered list of slots.
type Schema struct {
	slots    []ParameterSlot
	index    map[string]int
	dims     int
	def      Definition
	excluded map[Element]struct{}
}

// Slots returns a copy of the slots in schema order.
func (s *Schema) Slots() []ParameterSlot {
	out := make([]ParameterSlot, len(s.slots))
	copy(out, s.slots)

	return out
}

// Len is the number of slots, the length of every parameter vector.
func (s *Schema) Len() int {
	return len(s.slots)
}

// Dims is the number of sampled slots, the dimensionality of the sampler.
func (s *Schema) Dims() int {
	return s.dims
}

// Slot returns the slot named name and its position.
func (s *Schema) Slot(name string) (ParameterSlot, int, error) {
	pos, ok := s.index[name]
	if !ok {
		return ParameterSlot{}, 0, errors.Wrap(ErrUnknownSlot, name)
	}

	return s.slots[pos], pos, nil
}

// FixedSlots returns the positions of slots excluded from sampling.
func (s *Schema) FixedSlots() []int {
	var out []int

	for pos, slot := range s.slots {
		if !slot.Sampled {
			out = append(out, pos)
		}
	}

	return out
}

// Names returns the slot names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.slots))
	for i, slot := range s.slots {
		out[i] = slot.Name
	}

	return out
}

// Excluded returns the elements held out of sampling, in definition order.
func (s *Schema) Excluded() []Element {
	var out []Element

	for _, spec := range s.def.Elements {
		if _, ok := s.excluded[spec.Element]; ok {
			out = append(out, spec.Element)
		}
	}

	return out
}

// Definition returns a copy of the definition the schema was built from.
func (s *Schema) Definition() Definition {
	return s.def.clone()
}

// IsExcluded reports whether el is held out of sampling.
func (s *Schema) IsExcluded(el Element) bool {
	_, ok := s.excluded[el]

	return ok
}

func thresholdName(el Element) string {
	return "threshold:" + string(el)
}

func couplingName(source, target Element) string {
	return "coupling:" + string(source) + "->" + string(target)
}

func timescaleName(el Element) string {
	return "timescale:" + string(el)
}

// ThresholdSlot is the name of the threshold slot of el.
func ThresholdSlot(el Element) string { return thresholdName(el) }

// CouplingSlot is the name of the coupling slot from source to target.
func CouplingSlot(source, target Element) string { return couplingName(source, target) }

// TimescaleSlot is the name of the timescale slot of el.
func TimescaleSlot(el Element) string { return timescaleName(el) }

// Describe renders the schema as an aligned table, one slot per line.
func (s *Schema) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-4s %-22s %-18s %-22s %s\n", "pos", "name", "role", "range", "dim")

	for pos, slot := range s.slots {
		dim := "fixed=" + fmt.Sprintf("%g", slot.FixedValue)
		if slot.Sampled {
			dim = fmt.Sprintf("%d", slot.SampleDim)
		}

		fmt.Fprintf(&b, "%-4d %-22s %-18s %-22s %s\n", pos, slot.Name, slot.Role, slot.Range, dim)
	}

	return b.String()
}
