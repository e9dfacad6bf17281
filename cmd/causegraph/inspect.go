package main

import (
	"github.com/spf13/cobra"

	"github.com/ritzau/causegraph/pkg/loader"
	"github.com/ritzau/causegraph/pkg/output"
	"github.com/ritzau/causegraph/pkg/source"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print a report of the graph document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.Open(cmd.Context(), a.cfg.Data)
			if err != nil {
				return err
			}
			res, err := loader.NewRunner(src, nil).Run(cmd.Context(), "inspect")
			if err != nil {
				return err
			}
			output.PrintModelReport(cmd.OutOrStdout(), src.Name(), res)
			return nil
		},
	}
}
