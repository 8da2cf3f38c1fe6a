package drawer

import (
	"os"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/internal/store"
	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/measure"
)

// DOTDrawer writes the pipeline graph to a DOT file.
type DOTDrawer struct {
	graph    graph.Graph[string, string]
	fileName string
}

// NewDOTDrawer creates a drawer writing to fileName.
func NewDOTDrawer(fileName string) *DOTDrawer {
	return &DOTDrawer{
		fileName: fileName,
		graph:    graph.NewWithStore(graph.StringHash, store.NewOrderedStore[string, string](), graph.Directed()),
	}
}

// AddStep adds a step to the pipeline graph. Adding a step twice is a no-op.
func (d *DOTDrawer) AddStep(name string) error {
	err := d.graph.AddVertex(name)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(err, "unable to add vertex")
	}

	return nil
}

// AddLink adds a link between parent and children steps.
func (d *DOTDrawer) AddLink(parentName, childrenName string) error {
	err := d.graph.AddEdge(parentName, childrenName)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %s to %s", parentName, childrenName)
	}

	return nil
}

// Draw creates the DOT file.
func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.fileName)
	}

	err = DOT(d.graph, file, GraphAttribute("rankdir", "LR"))
	if err != nil {
		_ = file.Close()

		return errors.Wrapf(err, "unable to write dot file %s", d.fileName)
	}

	return errors.Wrapf(file.Close(), "unable to close %s", d.fileName)
}

// SetTotalTime labels the step with the time elapsed since startTime.
func (d *DOTDrawer) SetTotalTime(stepName string, startTime time.Time) error {
	_, properties, err := d.graph.VertexWithProperties(stepName)
	if err != nil {
		return errors.Wrapf(err, "unable to get %s vertex properties", stepName)
	}

	properties.Attributes["xlabel"] = time.Since(startTime).Round(time.Microsecond).String()

	return nil
}

// AddMeasure labels steps with their mean duration and colours each link from blue (fastest
// transport) to red (slowest).
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	all := msr.AllMetrics()

	var minWait, maxWait time.Duration

	first := true

	for _, mt := range all {
		for _, elapsed := range mt.AVGTransportDuration() {
			if first || elapsed < minWait {
				minWait = elapsed
			}

			if first || elapsed > maxWait {
				maxWait = elapsed
			}

			first = false
		}
	}

	for name, mt := range all {
		_, properties, err := d.graph.VertexWithProperties(name)
		if errors.Is(err, graph.ErrVertexNotFound) {
			continue
		}

		if err != nil {
			return errors.Wrap(err, "unable to get vertex properties")
		}

		if avg := mt.AVGDuration(); avg != 0 {
			properties.Attributes["xlabel"] = avg.String()
		}

		if end := mt.GetTotalDuration(); end > 0 && name != "end" {
			properties.Attributes["xlabel"] += ", end: " + end.String()
		}

		for input, elapsed := range mt.AVGTransportDuration() {
			fraction := 1.0
			if maxWait > minWait {
				fraction = float64(elapsed-minWait) / float64(maxWait-minWait)
			}

			colour, err := Gradient(fraction)
			if err != nil {
				return err
			}

			err = d.graph.UpdateEdge(input, name,
				graph.EdgeAttribute("label", elapsed.String()),
				graph.EdgeAttribute("fontcolor", "blue"),
				graph.EdgeAttribute("color", colour),
			)
			if err != nil && !errors.Is(err, graph.ErrEdgeNotFound) {
				return errors.Wrap(err, "unable to update edge")
			}
		}
	}

	return nil
}

var _ Drawer = (*DOTDrawer)(nil)
