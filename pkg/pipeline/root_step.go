package pipeline

import (
	"context"

	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
)

// AddRootStep adds the step feeding the pipeline. stepFn must stop sending when ctx is done;
// Emit does that for it.
func AddRootStep[O any](p *Pipeline, name string, stepFn func(ctx context.Context, rootChan chan<- O) error) (*model.Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	output := make(chan O)
	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.RootStepType,
			Name:       name,
			Concurrent: 1,
		},
		Output: output,
	}

	for _, opt := range p.opts {
		err := opt.PrepareStep(model.StartStep.Details, step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to prepare root step")
		}
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))

	go func() {
		defer func() {
			close(output)
			close(errC)
		}()

		err := stepFn(p.ctx, output)
		if err != nil {
			report(errC, err)
		}
	}()

	return step, nil
}

// Emit sends v on out unless ctx is done first.
func Emit[O any](ctx context.Context, out chan<- O, v O) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case out <- v:
		return nil
	}
}
