package main

import (
	"github.com/spf13/cobra"

	"github.com/ritzau/causegraph/pkg/config"
	"github.com/ritzau/causegraph/pkg/logging"
)

// app carries state shared by the subcommands.
type app struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "causegraph",
		Short:         "Explore causal fault graphs",
		Long:          "causegraph loads a causal fault graph document and lays it out for interactive exploration.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
			if err != nil {
				return err
			}
			logging.Configure(cmd.ErrOrStderr(), level, cfg.JSONLogs)
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default "+config.DefaultFile+" if present)")
	pf.StringP("location", "l", "graph.json", "graph document: a path or s3://bucket/key")
	pf.String("region", "", "AWS region for s3 locations")
	pf.String("endpoint", "", "S3 endpoint override (path-style addressing)")
	pf.String("verbosity", "", "log level: trace, debug, info, warn, error")
	pf.CountP("verbose", "v", "increase log verbosity (-v debug, -vv trace)")
	pf.Bool("json", false, "log in JSON format")

	root.AddCommand(
		newServeCmd(a),
		newInspectCmd(a),
		newCoreCmd(a),
	)
	return root
}
