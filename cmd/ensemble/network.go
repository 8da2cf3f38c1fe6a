package main

import (
	"io"
	"math"
	"os"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/askiada/go-tipping-ensemble/pkg/pipeline/drawer"
	"github.com/askiada/go-tipping-ensemble/pkg/schema"
)

// colourNetwork colours every coupling from blue (weakest midpoint) to red (strongest) and
// dashes the couplings that are not sampled.
func colourNetwork(sch *schema.Schema, g graph.Graph[schema.Element, schema.Element]) error {
	lowest, highest := math.Inf(1), math.Inf(-1)

	edges := sch.Definition().Couplings
	for _, edge := range edges {
		mid := edge.Strength.Midpoint()
		lowest = math.Min(lowest, mid)
		highest = math.Max(highest, mid)
	}

	for _, edge := range edges {
		fraction := 0.5
		if highest > lowest {
			fraction = (edge.Strength.Midpoint() - lowest) / (highest - lowest)
		}

		colour, err := drawer.Gradient(fraction)
		if err != nil {
			return err
		}

		current, err := g.Edge(edge.Source, edge.Target)
		if err != nil {
			return errors.Wrapf(err, "unable to find coupling %s", schema.CouplingSlot(edge.Source, edge.Target))
		}

		// UpdateEdge keeps the attributes already set
		opts := []func(*graph.EdgeProperties){graph.EdgeAttribute("color", colour)}
		if current.Properties.Attributes[schema.AttrSampled] == "false" {
			opts = append(opts, graph.EdgeAttribute("style", "dashed"))
		}

		err = g.UpdateEdge(edge.Source, edge.Target, opts...)
		if err != nil {
			return errors.Wrapf(err, "unable to colour coupling %s", schema.CouplingSlot(edge.Source, edge.Target))
		}
	}

	return nil
}

func writeNetwork(sch *schema.Schema, wrt io.Writer) error {
	g, err := sch.Network()
	if err != nil {
		return err
	}

	err = colourNetwork(sch, g)
	if err != nil {
		return err
	}

	return drawer.DOT(g, wrt, drawer.GraphAttribute("rankdir", "LR"))
}

func newNetworkCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "network",
		Short: "Write the coupling network as a DOT graph",
		Long: `Writes the directed coupling network of the tipping elements in the DOT language.
Edge colours go from blue for the weakest to red for the strongest mean coupling;
couplings of excluded elements are dashed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sch, err := buildSchema(a)
			if err != nil {
				return err
			}

			if output == "" {
				return writeNetwork(sch, cmd.OutOrStdout())
			}

			file, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "unable to create %s", output)
			}

			err = writeNetwork(sch, file)
			if err != nil {
				_ = file.Close()

				return err
			}

			return file.Close()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, stdout when empty")

	return cmd
}
