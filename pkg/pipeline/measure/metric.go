package measure

import (
	"sync"
	"time"
)

type transportInfo struct {
	elapsed time.Duration
	total   int64
}

// DefaultMetric is a Metric safe for concurrent use.
type DefaultMetric struct {
	mu            sync.Mutex
	allTransports map[string]*transportInfo
	endDuration   time.Duration
	stepElapsed   time.Duration
	total         int64
	concurrent    int
}

func newDefaultMetric(concurrent int) *DefaultMetric {
	if concurrent < 1 {
		concurrent = 1
	}

	return &DefaultMetric{
		allTransports: make(map[string]*transportInfo),
		concurrent:    concurrent,
	}
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.total++
	mt.stepElapsed += elapsed
}

func (mt *DefaultMetric) Count() int64 {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.total
}

func (mt *DefaultMetric) SetTotalDuration(endDuration time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.endDuration = endDuration
}

func (mt *DefaultMetric) GetTotalDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return mt.endDuration
}

func (mt *DefaultMetric) AddTransportDuration(inputStepName string, elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	info, ok := mt.allTransports[inputStepName]
	if !ok {
		info = &transportInfo{}
		mt.allTransports[inputStepName] = info
	}

	info.elapsed += elapsed
	info.total++
}

// AVGDuration is the mean computation time per element.
func (mt *DefaultMetric) AVGDuration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.total == 0 {
		return 0
	}

	return round(time.Duration(float64(mt.stepElapsed) / float64(mt.total)))
}

// AVGTransportDuration is the mean wait per element and input, divided by the concurrency of the stage.
func (mt *DefaultMetric) AVGTransportDuration() map[string]time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	out := make(map[string]time.Duration, len(mt.allTransports))

	for name, info := range mt.allTransports {
		if info.total == 0 {
			out[name] = 0

			continue
		}

		out[name] = round(time.Duration(float64(info.elapsed) / float64(info.total) / float64(mt.concurrent)))
	}

	return out
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		return d.Round(time.Hour)
	case d > time.Minute:
		return d.Round(time.Minute)
	case d > time.Second:
		return d.Round(time.Second)
	case d > time.Millisecond:
		return d.Round(time.Millisecond)
	case d > time.Microsecond:
		return d.Round(time.Microsecond)
	}

	return d
}
