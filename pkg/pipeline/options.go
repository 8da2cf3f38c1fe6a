package pipeline

import "github.com/askiada/go-tipping-ensemble/pkg/pipeline/model"

// StepOption configures a step.
type StepOption[O any] func(s *model.Step[O])

// StepConcurrency runs the step function in concurrent goroutines. Output order is then lost.
func StepConcurrency[O any](concurrent int) StepOption[O] {
	return func(s *model.Step[O]) {
		s.Details.Concurrent = concurrent
	}
}

// SplitterOption configures a splitter.
type SplitterOption[I any] func(s *Splitter[I])

// SplitterBufferSize sets the buffer of each branch, so a slow branch does not hold back the others.
func SplitterBufferSize[I any](bufferSize int) SplitterOption[I] {
	return func(s *Splitter[I]) {
		s.bufferSize = bufferSize
	}
}
