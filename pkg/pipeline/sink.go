package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
)

// AddSink adds a terminal step calling sinkFn once per input value, sequentially.
func AddSink[I any](p *Pipeline, name string, input *model.Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if input == nil {
		return ErrInputMustBeSet
	}

	if input.Details == nil {
		input.Details = model.StartStep.Details
	}

	step := &model.StepInfo{
		Type:       model.SinkStepType,
		Name:       name,
		Concurrent: 1,
	}

	for _, opt := range p.opts {
		err := opt.PrepareSink(input.Details, step)
		if err != nil {
			return errors.Wrap(err, "unable to prepare sink")
		}
	}

	errC := make(chan error, 1)
	p.errcList.add(newErrorChan(name, errC))

	go func() {
		defer close(errC)

		err := runSink(p, input, step, sinkFn)
		if err != nil {
			report(errC, err)

			return
		}

		for _, opt := range p.opts {
			err := opt.AfterSink(step, time.Since(p.startTime))
			if err != nil {
				report(errC, errors.Wrap(err, "unable to run after sink hook"))

				return
			}
		}
	}()

	return nil
}

func runSink[I any](p *Pipeline, input *model.Step[I], step *model.StepInfo, sinkFn func(ctx context.Context, input I) error) error {
	for {
		startInputChan := time.Now()

		var (
			in I
			ok bool
		)

		select {
		case <-p.ctx.Done():
			return p.ctx.Err()
		case in, ok = <-input.Output:
		}

		if !ok {
			return nil
		}

		endInputChan := time.Since(startInputChan)
		startFn := time.Now()

		err := sinkFn(p.ctx, in)
		if err != nil {
			return err
		}

		endFn := time.Since(startFn)

		for _, opt := range p.opts {
			err := opt.OnSinkOutput(input.Details, step, endInputChan, endFn)
			if err != nil {
				return errors.Wrap(err, "unable to run sink output hook")
			}
		}
	}
}
