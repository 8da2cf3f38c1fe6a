// Package measure records how long each pipeline stage spends computing and waiting.
package measure

import "time"

// Measure holds one Metric per stage.
type Measure interface {
	AddMetric(name string, concurrent int) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric accumulates the durations of one stage.
type Metric interface {
	// AddDuration records the computation time of one element.
	AddDuration(elapsed time.Duration)
	// AddTransportDuration records the time spent waiting for an element of inputStepName.
	AddTransportDuration(inputStepName string, elapsed time.Duration)
	AVGDuration() time.Duration
	AVGTransportDuration() map[string]time.Duration
	Count() int64
	SetTotalDuration(endDuration time.Duration)
	GetTotalDuration() time.Duration
}
