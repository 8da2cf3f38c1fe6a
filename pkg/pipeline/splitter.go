package pipeline

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
)

// Splitter copies every input value to each of its branches.
type Splitter[I any] struct {
	mu         sync.Mutex
	currIdx    int
	branches   []*model.Step[I]
	bufferSize int
	Total      int
}

// Get returns the next unused branch.
func (s *Splitter[I]) Get() (*model.Step[I], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currIdx >= len(s.branches) {
		return nil, false
	}

	branch := s.branches[s.currIdx]
	s.currIdx++

	return branch, true
}

// AddSplitter adds a step copying every value of input to total branches.
func AddSplitter[I any](p *Pipeline, name string, input *model.Step[I], total int, opts ...SplitterOption[I]) (*Splitter[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	if total <= 0 {
		return nil, ErrSplitterTotal
	}

	if input.Details == nil {
		input.Details = model.StartStep.Details
	}

	splitter := &Splitter[I]{
		Total:      total,
		bufferSize: 1,
	}

	for _, opt := range opts {
		opt(splitter)
	}

	details := &model.StepInfo{
		Type:       model.SplitterStepType,
		Name:       name,
		Concurrent: 1,
	}

	for _, opt := range p.opts {
		err := opt.PrepareSplitter(input.Details, details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to prepare splitter")
		}
	}

	splitter.branches = make([]*model.Step[I], total)
	for i := range splitter.branches {
		splitter.branches[i] = &model.Step[I]{
			Details: details,
			Output:  make(chan I, splitter.bufferSize),
		}
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))

	go func() {
		defer func() {
			for _, branch := range splitter.branches {
				close(branch.Output)
			}

			close(errC)
		}()

		err := runSplitter(p, input, details, splitter.branches)
		if err != nil {
			report(errC, err)
		}
	}()

	return splitter, nil
}

func runSplitter[I any](p *Pipeline, input *model.Step[I], details *model.StepInfo, branches []*model.Step[I]) error {
	for {
		startIter := time.Now()

		var (
			entry I
			ok    bool
		)

		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case entry, ok = <-input.Output:
		}

		if !ok {
			return nil
		}

		startFn := time.Now()

		for _, branch := range branches {
			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case branch.Output <- entry:
			}
		}

		endFn := time.Since(startFn)

		for _, opt := range p.opts {
			err := opt.OnSplitterOutput(input.Details, details, startFn.Sub(startIter), endFn)
			if err != nil {
				return errors.Wrap(err, "unable to run splitter output hook")
			}
		}
	}
}
