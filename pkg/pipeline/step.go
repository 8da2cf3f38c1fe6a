package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
)

func (p *Pipeline) onStepOutput(input, output *model.StepInfo, iteration, computation time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStepOutput(input, output, iteration, computation)
		if err != nil {
			return errors.Wrap(err, "unable to run step output hook")
		}
	}

	return nil
}

func sequentialOneToOne[I any, O any](ctx context.Context, p *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
	for {
		start := time.Now()

		var (
			in I
			ok bool
		)

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok = <-input.Output:
		}

		if !ok {
			return nil
		}

		startFn := time.Now()

		out, err := oneToOneFn(ctx, in)
		if err != nil {
			return errors.Wrapf(err, "go routine %d", goIdx)
		}

		endFn := time.Since(startFn)

		// a sibling may have failed while fn was running
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case output.Output <- out:
		}

		if p != nil {
			err = p.onStepOutput(input.Details, output.Details, time.Since(start)-endFn, endFn)
			if err != nil {
				return err
			}
		}
	}
}

func runOneToOne[I any, O any](ctx context.Context, p *Pipeline, input *model.Step[I], output *model.Step[O], oneToOneFn func(context.Context, I) (O, error)) error {
	concurrent := output.Details.Concurrent
	if concurrent <= 1 {
		return sequentialOneToOne(ctx, p, 0, input, output, oneToOneFn)
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(concurrent)

	for goIdx := range concurrent {
		errGrp.Go(func() error {
			return sequentialOneToOne(dCtx, p, goIdx, input, output, oneToOneFn)
		})
	}

	return errGrp.Wait()
}

// AddStepOneToOne adds a step calling oneToOneFn once per input value.
func AddStepOneToOne[I any, O any](p *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: make(chan O),
	}

	for _, opt := range opts {
		opt(step)
	}

	if input.Details == nil {
		input.Details = model.StartStep.Details
	}

	for _, opt := range p.opts {
		err := opt.PrepareStep(input.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to prepare step")
		}
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()

		err := runOneToOne(p.ctx, p, input, step, oneToOneFn)
		if err != nil {
			report(errC, err)
		}
	}()

	return step, nil
}
