package schema

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-tipping-ensemble/internal/store"
)

// Edge attribute keys set by Network.
const (
	AttrRange   = "range"
	AttrSampled = "sampled"
)

func elementHash(el Element) Element {
	return el
}

// Network returns the coupling network as a directed graph. Vertices and edges are listed in
// definition order. Edges carry their strength range and whether they are sampled as
// attributes; excluded elements carry the attribute sampled=false.
func (s *Schema) Network() (graph.Graph[Element, Element], error) {
	g := graph.NewWithStore(elementHash, store.NewOrderedStore[Element, Element](), graph.Directed())

	for _, spec := range s.def.Elements {
		err := g.AddVertex(spec.Element,
			graph.VertexAttribute(AttrRange, spec.Threshold.String()),
			graph.VertexAttribute(AttrSampled, boolAttr(!s.IsExcluded(spec.Element))),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add element %s", spec.Element)
		}
	}

	for _, edge := range s.def.Couplings {
		slot, _, err := s.Slot(couplingName(edge.Source, edge.Target))
		if err != nil {
			return nil, err
		}

		err = g.AddEdge(edge.Source, edge.Target,
			graph.EdgeAttribute(AttrRange, edge.Strength.String()),
			graph.EdgeAttribute(AttrSampled, boolAttr(slot.Sampled)),
		)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add coupling %s", slot.Name)
		}
	}

	return g, nil
}

// Influences returns the couplings whose target is el, in definition order.
func (s *Schema) Influences(el Element) []CouplingEdge {
	var out []CouplingEdge

	for _, edge := range s.def.Couplings {
		if edge.Target == el {
			out = append(out, edge)
		}
	}

	return out
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}

	return "false"
}
