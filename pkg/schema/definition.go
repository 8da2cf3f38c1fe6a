package schema

import (
	"github.com/pkg/errors"
)

// ElementSpec holds the per-element ranges.
type ElementSpec struct {
	Element   Element
	Threshold Range
	Timescale Range
}

// CouplingEdge is a directed interaction: tipping of Source shifts the threshold of Target.
// Strength may include negative values when the sign of the effect is uncertain.
type CouplingEdge struct {
	Source   Element
	Target   Element
	Strength Range
}

// Definition is the editable description a Schema is built from.
type Definition struct {
	Elements  []ElementSpec
	Couplings []CouplingEdge
	// TimescaleOrder orders the timescale slots. Empty means the order of Elements.
	TimescaleOrder []Element
	// Exclude holds elements that never take part in sampling.
	Exclude []Element
	// FixedValue is used for every slot of an excluded element. Zero means DefaultFixedValue.
	FixedValue float64
}

func (d Definition) clone() Definition {
	out := Definition{
		Elements:       append([]ElementSpec(nil), d.Elements...),
		Couplings:      append([]CouplingEdge(nil), d.Couplings...),
		TimescaleOrder: append([]Element(nil), d.TimescaleOrder...),
		Exclude:        append([]Element(nil), d.Exclude...),
		FixedValue:     d.FixedValue,
	}

	return out
}

// WithExclude returns a copy of d holding exactly the given elements out of sampling.
func (d Definition) WithExclude(elements ...Element) Definition {
	out := d.clone()
	out.Exclude = append([]Element(nil), elements...)

	return out
}

// WithRanges returns a copy of d where the named slots get new ranges.
func (d Definition) WithRanges(ranges map[string]Range) (Definition, error) {
	out := d.clone()
	seen := make(map[string]struct{}, len(ranges))

	for i, spec := range out.Elements {
		if r, ok := ranges[thresholdName(spec.Element)]; ok {
			out.Elements[i].Threshold = r
			seen[thresholdName(spec.Element)] = struct{}{}
		}

		if r, ok := ranges[timescaleName(spec.Element)]; ok {
			out.Elements[i].Timescale = r
			seen[timescaleName(spec.Element)] = struct{}{}
		}
	}

	for i, edge := range out.Couplings {
		name := couplingName(edge.Source, edge.Target)
		if r, ok := ranges[name]; ok {
			out.Couplings[i].Strength = r
			seen[name] = struct{}{}
		}
	}

	for name := range ranges {
		if _, ok := seen[name]; !ok {
			return Definition{}, &SlotError{Slot: name, Err: ErrUnknownSlot}
		}
	}

	return out, nil
}

// Build validates d and lays out the slots.
func Build(d Definition) (*Schema, error) {
	if len(d.Elements) == 0 {
		return nil, ErrNoElements
	}

	def := d.clone()
	if def.FixedValue == 0 {
		def.FixedValue = DefaultFixedValue
	}

	known := make(map[Element]ElementSpec, len(def.Elements))
	for _, spec := range def.Elements {
		if _, ok := known[spec.Element]; ok {
			return nil, &SlotError{Slot: thresholdName(spec.Element), Err: ErrDuplicateSlot}
		}

		known[spec.Element] = spec
	}

	excluded := make(map[Element]struct{}, len(def.Exclude))
	for _, el := range def.Exclude {
		if _, ok := known[el]; !ok {
			return nil, errors.Wrapf(ErrUnknownElement, "excluded element %q", el)
		}

		excluded[el] = struct{}{}
	}

	timescaleOrder := def.TimescaleOrder
	if len(timescaleOrder) == 0 {
		for _, spec := range def.Elements {
			timescaleOrder = append(timescaleOrder, spec.Element)
		}
	}

	if len(timescaleOrder) != len(def.Elements) {
		return nil, errors.Wrapf(ErrUnknownElement, "timescale order lists %d elements, want %d", len(timescaleOrder), len(def.Elements))
	}

	sch := &Schema{
		index:    make(map[string]int),
		def:      def,
		excluded: excluded,
	}

	for _, spec := range def.Elements {
		err := sch.add(RoleThreshold, thresholdName(spec.Element), spec.Threshold, spec.Element)
		if err != nil {
			return nil, err
		}
	}

	for _, edge := range def.Couplings {
		name := couplingName(edge.Source, edge.Target)

		for _, el := range []Element{edge.Source, edge.Target} {
			if _, ok := known[el]; !ok {
				return nil, &SlotError{Slot: name, Err: errors.Wrapf(ErrUnknownElement, "%q", el)}
			}
		}

		if edge.Source == edge.Target {
			return nil, &SlotError{Slot: name, Err: ErrSelfCoupling}
		}

		err := sch.add(RoleCoupling, name, edge.Strength, edge.Source, edge.Target)
		if err != nil {
			return nil, err
		}
	}

	for _, el := range timescaleOrder {
		spec, ok := known[el]
		if !ok {
			return nil, &SlotError{Slot: timescaleName(el), Err: errors.Wrapf(ErrUnknownElement, "%q", el)}
		}

		err := sch.add(RoleTimescale, timescaleName(el), spec.Timescale, el)
		if err != nil {
			return nil, err
		}
	}

	err := sch.checkDims()
	if err != nil {
		return nil, err
	}

	return sch, nil
}

func (s *Schema) add(role Role, name string, rng Range, elements ...Element) error {
	if _, ok := s.index[name]; ok {
		return &SlotError{Slot: name, Err: ErrDuplicateSlot}
	}

	err := rng.Validate()
	if err != nil {
		return &SlotError{Slot: name, Err: err}
	}

	slot := ParameterSlot{
		Name:       name,
		Role:       role,
		Range:      rng,
		Sampled:    true,
		FixedValue: s.def.FixedValue,
		SampleDim:  NotSampled,
		Elements:   elements,
	}

	for _, el := range elements {
		if _, ok := s.excluded[el]; ok {
			slot.Sampled = false
		}
	}

	if slot.Sampled {
		slot.SampleDim = s.dims
		s.dims++
	}

	s.index[name] = len(s.slots)
	s.slots = append(s.slots, slot)

	return nil
}

// checkDims verifies the sample dimensions form 0..Dims-1 in schema order.
func (s *Schema) checkDims() error {
	next := 0

	for _, slot := range s.slots {
		if !slot.Sampled {
			if slot.SampleDim != NotSampled {
				return &SlotError{Slot: slot.Name, Err: ErrSampleDimension}
			}

			continue
		}

		if slot.SampleDim != next {
			return &SlotError{Slot: slot.Name, Err: errors.Wrapf(ErrSampleDimension, "got %d, want %d", slot.SampleDim, next)}
		}

		next++
	}

	if next != s.dims {
		return errors.Wrapf(ErrSampleDimension, "counted %d sampled slots, recorded %d", next, s.dims)
	}

	return nil
}
