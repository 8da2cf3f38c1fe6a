package model

import "time"

// PipelineOption defines the interface for pipeline options.
// Output hooks can be called from several goroutines at once.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineStepOption
	pipelineSplitterOption
	pipelineSinkOption

	// Finish runs after the pipeline is finished without error.
	Finish() error
}

type pipelineStepOption interface {
	// PrepareStep runs when a root or normal step is added.
	PrepareStep(parentStep, step *StepInfo) error
	// OnStepOutput runs everytime something is pushed to the output of the step.
	OnStepOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error
}

type pipelineSplitterOption interface {
	// PrepareSplitter runs when the splitter step is added.
	PrepareSplitter(parentStep, splitterStep *StepInfo) error
	// OnSplitterOutput runs everytime an element is copied to every branch of the splitter.
	OnSplitterOutput(parentStep, splitterStep *StepInfo, iterationDuration, computationDuration time.Duration) error
}

type pipelineSinkOption interface {
	// PrepareSink runs when the sink step is added.
	PrepareSink(parentStep, step *StepInfo) error
	// OnSinkOutput runs everytime the sink consumed an element.
	OnSinkOutput(parentStep, step *StepInfo, iterationDuration, computationDuration time.Duration) error
	// AfterSink runs once the sink input is exhausted.
	AfterSink(step *StepInfo, totalDuration time.Duration) error
}
