package ensemble

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/pkg/schema"
)

// DefaultLaunchPrefix starts one simulation on the cluster; the argument list follows it.
const DefaultLaunchPrefix = "python /MAIN_script.py $SLURM_NTASKS"

var ErrIndexOutOfRange = errors.New("sample index out of range")

// Option configures an Assembler.
type Option func(a *Assembler)

// WithLaunchPrefix sets the command prefix written before the arguments.
func WithLaunchPrefix(prefix string) Option {
	return func(a *Assembler) {
		a.prefix = prefix
	}
}

// WithRunIDWidth forces the run identifier width. Widths narrower than the ensemble needs are ignored.
func WithRunIDWidth(width int) Option {
	return func(a *Assembler) {
		if width > a.width {
			a.width = width
		}
	}
}

// Assembler builds members from sample points. It is immutable once created and safe for
// concurrent use.
type Assembler struct {
	slots  []schema.ParameterSlot
	dims   int
	size   int
	prefix string
	width  int
}

// NewAssembler checks that a sampler producing dims columns can feed every sampled slot of sch,
// for an ensemble of size members.
func NewAssembler(sch *schema.Schema, dims, size int, opts ...Option) (*Assembler, error) {
	if sch == nil {
		return nil, NewConfigurationError("new assembler", errors.New("schema must be set"))
	}

	if size < 0 {
		return nil, NewConfigurationError("new assembler", errors.Errorf("ensemble size %d is negative", size))
	}

	slots := sch.Slots()
	for _, slot := range slots {
		if slot.Sampled && slot.SampleDim >= dims {
			return nil, &ConfigurationError{
				Op:   "new assembler",
				Slot: slot.Name,
				Dim:  slot.SampleDim,
				Err:  errors.Wrapf(ErrDimensionMismatch, "sampler provides %d columns", dims),
			}
		}
	}

	if dims != sch.Dims() {
		return nil, &ConfigurationError{
			Op:  "new assembler",
			Dim: dims,
			Err: errors.Wrapf(ErrDimensionMismatch, "schema samples %d slots, sampler provides %d columns", sch.Dims(), dims),
		}
	}

	asm := &Assembler{
		slots:  slots,
		dims:   dims,
		size:   size,
		prefix: DefaultLaunchPrefix,
		width:  RunIDWidth(size),
	}

	for _, opt := range opts {
		opt(asm)
	}

	return asm, nil
}

// Size is the number of members the assembler was created for.
func (a *Assembler) Size() int {
	return a.size
}

// Check validates a point without building the member.
func (a *Assembler) Check(p SamplePoint) error {
	if p.Index < 0 || p.Index >= a.size {
		return errors.Wrapf(ErrIndexOutOfRange, "index %d, ensemble size %d", p.Index, a.size)
	}

	if len(p.Coords) != a.dims {
		return &ConfigurationError{
			Op:  "assemble",
			Dim: len(p.Coords),
			Err: errors.Wrapf(ErrDimensionMismatch, "point %d has %d coordinates, want %d", p.Index, len(p.Coords), a.dims),
		}
	}

	return nil
}

// Member builds the member for one sample point.
func (a *Assembler) Member(p SamplePoint) (Member, error) {
	err := a.Check(p)
	if err != nil {
		return Member{}, err
	}

	values := make([]float64, len(a.slots))

	for pos, slot := range a.slots {
		if !slot.Sampled {
			values[pos] = slot.FixedValue

			continue
		}

		values[pos] = Rescale(slot.Range, p.Coords[slot.SampleDim])
	}

	runID := FormatRunID(p.Index, a.width)

	return Member{
		Index:   p.Index,
		RunID:   runID,
		Values:  values,
		Command: a.command(values, runID),
	}, nil
}

func (a *Assembler) command(values []float64, runID string) string {
	fields := make([]string, 0, len(values)+2)
	if a.prefix != "" {
		fields = append(fields, a.prefix)
	}

	for _, v := range values {
		fields = append(fields, FormatValue(v))
	}

	fields = append(fields, runID)

	return strings.Join(fields, " ")
}

// Assemble builds one member per point, in the order of points. Every point is checked before
// the first member is built, so a failure never yields a partial ensemble.
func (a *Assembler) Assemble(points []SamplePoint) ([]Member, error) {
	seen := make(map[int]struct{}, len(points))

	for _, p := range points {
		err := a.Check(p)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[p.Index]; ok {
			return nil, errors.Errorf("sample index %d appears twice", p.Index)
		}

		seen[p.Index] = struct{}{}
	}

	members := make([]Member, 0, len(points))

	for _, p := range points {
		m, err := a.Member(p)
		if err != nil {
			return nil, err
		}

		members = append(members, m)
	}

	return members, nil
}
