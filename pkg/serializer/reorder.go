package serializer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/pkg/ensemble"
)

// reorder holds members that arrive ahead of their turn and releases them by index.
type reorder struct {
	next    int
	pending map[int]ensemble.Member
	emit    func(context.Context, ensemble.Member) error
}

func newReorder(emit func(context.Context, ensemble.Member) error) *reorder {
	return &reorder{
		pending: make(map[int]ensemble.Member),
		emit:    emit,
	}
}

func (r *reorder) push(ctx context.Context, m ensemble.Member) error {
	if m.Index < r.next {
		return errors.Wrapf(ErrDuplicate, "index %d", m.Index)
	}

	if _, ok := r.pending[m.Index]; ok {
		return errors.Wrapf(ErrDuplicate, "index %d", m.Index)
	}

	r.pending[m.Index] = m

	for {
		ready, ok := r.pending[r.next]
		if !ok {
			return nil
		}

		delete(r.pending, r.next)
		r.next++

		err := r.emit(ctx, ready)
		if err != nil {
			return err
		}
	}
}

// done fails when a member is still waiting for an earlier index.
func (r *reorder) done() error {
	if len(r.pending) == 0 {
		return nil
	}

	return errors.Wrapf(ErrMissingMember, "index %d never arrived, %d members held back", r.next, len(r.pending))
}

func (r *reorder) written() int {
	return r.next
}
