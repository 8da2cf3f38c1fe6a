// Package drawer renders graphs in the Graphviz DOT language.
//
// It is used for the stage graph of a pipeline, annotated with the durations collected by the
// measure package, and for any other github.com/dominikbraun/graph graph such as the coupling
// network of tipping elements.
package drawer

import (
	"time"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/measure"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddStep adds a step to the pipeline drawer.
	AddStep(stepName string) error
	// AddLink adds a link between parent and children steps.
	AddLink(parentStepName, childrenStepName string) error
	// Draw creates a file with the pipeline graph.
	Draw() error
	// SetTotalTime labels the step with the time elapsed since startTime.
	SetTotalTime(stepName string, startTime time.Time) error
	// AddMeasure annotates steps and links with measured durations.
	AddMeasure(measure measure.Measure) error
}
