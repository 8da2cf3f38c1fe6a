package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/askiada/go-tipping-ensemble/pkg/schema"
)

func buildSchema(a *app) (*schema.Schema, error) {
	def, err := a.cfg.Definition()
	if err != nil {
		return nil, err
	}

	return schema.Build(def)
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the parameter slots in argument order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sch, err := buildSchema(a)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), sch.Describe())

			return nil
		},
	}
}
