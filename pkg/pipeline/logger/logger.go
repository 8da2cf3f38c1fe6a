// Package logger provides a pipeline option logging the life of each stage with zap.
package logger

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"
)

type pipelineLogger struct {
	log       *zap.Logger
	startTime time.Time
	every     int64
	outputs   atomic.Int64
}

func (pl *pipelineLogger) New() error {
	pl.startTime = time.Now()
	pl.log.Debug("pipeline created")

	return nil
}

func (pl *pipelineLogger) prepare(parentStep, step *model.StepInfo) {
	pl.log.Debug("stage added",
		zap.String("kind", string(step.Type)),
		zap.String("stage", step.Name),
		zap.String("input", parentStep.Name),
		zap.Int("concurrent", step.Concurrent),
	)
}

func (pl *pipelineLogger) PrepareStep(parentStep, step *model.StepInfo) error {
	pl.prepare(parentStep, step)

	return nil
}

func (pl *pipelineLogger) PrepareSplitter(parentStep, splitterStep *model.StepInfo) error {
	pl.prepare(parentStep, splitterStep)

	return nil
}

func (pl *pipelineLogger) PrepareSink(parentStep, step *model.StepInfo) error {
	pl.prepare(parentStep, step)

	return nil
}

func (pl *pipelineLogger) OnStepOutput(_, step *model.StepInfo, _, _ time.Duration) error {
	if pl.every <= 0 {
		return nil
	}

	if n := pl.outputs.Add(1); n%pl.every == 0 {
		pl.log.Info("progress", zap.String("stage", step.Name), zap.Int64("elements", n))
	}

	return nil
}

func (pl *pipelineLogger) OnSplitterOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pl *pipelineLogger) OnSinkOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pl *pipelineLogger) AfterSink(step *model.StepInfo, totalDuration time.Duration) error {
	pl.log.Debug("sink done", zap.String("stage", step.Name), zap.Duration("elapsed", totalDuration))

	return nil
}

func (pl *pipelineLogger) Finish() error {
	pl.log.Info("pipeline finished", zap.Duration("elapsed", time.Since(pl.startTime)))

	return nil
}

// PipelineLogger logs stage creation and completion, and every progressEvery step outputs.
// A progressEvery of 0 disables progress lines.
func PipelineLogger(log *zap.Logger, progressEvery int64) model.PipelineOption {
	if log == nil {
		log = zap.NewNop()
	}

	return &pipelineLogger{log: log.Named("pipeline"), every: progressEvery}
}
