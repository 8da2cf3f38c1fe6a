package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-tipping-ensemble/internal/config"
	"github.com/askiada/go-tipping-ensemble/internal/generate"
)

type generateFlags struct {
	samples     int
	seed        int64
	outDir      string
	concurrency int
	sampler     string
	draw        string
	metrics     string
	values      string
	sqlite      string
}

// apply copies the flags set on the command line over cfg.
func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("samples") {
		cfg.Samples = f.samples
	}

	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}

	if flags.Changed("out-dir") {
		cfg.Output.Dir = f.outDir
	}

	if flags.Changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}

	if flags.Changed("sampler") {
		cfg.Sampler = f.sampler
	}

	if flags.Changed("draw") {
		cfg.Draw = f.draw
	}

	if flags.Changed("metrics") {
		cfg.Metrics.Textfile = f.metrics
	}

	if flags.Changed("values") {
		cfg.Output.Values = f.values
	}

	if flags.Changed("sqlite") {
		cfg.Output.SQLite = f.sqlite
	}
}

func newGenerateCmd(a *app) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Sample the parameter space and write the launch commands",
		Long: `Draws a Latin hypercube sample over every sampled slot, rescales it to the slot
ranges, fixes the slots of excluded elements and writes one launch command per member.
Nothing is written unless the whole ensemble succeeded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a.cfg)

			summary, err := generate.Run(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d members, %d slots (%d sampled)\n", summary.Members, summary.Slots, summary.Dims)

			for _, path := range summary.Files {
				fmt.Fprintln(out, path)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&f.samples, "samples", "n", config.DefaultSamples, "ensemble size")
	flags.Int64Var(&f.seed, "seed", 0, "random seed")
	flags.StringVarP(&f.outDir, "out-dir", "o", ".", "output directory")
	flags.IntVar(&f.concurrency, "concurrency", 1, "goroutines assembling members")
	flags.StringVar(&f.sampler, "sampler", "jittered", "jittered or centered")
	flags.StringVar(&f.draw, "draw", "", "write the pipeline graph as DOT to this file")
	flags.StringVar(&f.metrics, "metrics", "", "write pipeline metrics in the Prometheus text format to this file")
	flags.StringVar(&f.values, "values", "", "also write a tab separated values table under this name")
	flags.StringVar(&f.sqlite, "sqlite", "", "also write an SQLite database under this name")

	return cmd
}
