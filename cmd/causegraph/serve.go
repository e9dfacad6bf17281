package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritzau/causegraph/pkg/loader"
	"github.com/ritzau/causegraph/pkg/logging"
	"github.com/ritzau/causegraph/pkg/source"
	"github.com/ritzau/causegraph/pkg/watcher"
	"github.com/ritzau/causegraph/pkg/web"
)

func newServeCmd(a *app) *cobra.Command {
	var openBrowserFlag bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph and layout sessions over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), openBrowserFlag)
		},
	}

	f := cmd.Flags()
	f.String("host", "", "interface to listen on")
	f.IntP("port", "p", 8080, "port for the web server")
	f.BoolP("watch", "w", false, "reload when the graph document changes")
	f.BoolVar(&openBrowserFlag, "open", false, "open the browser once the server is up")
	return cmd
}

func (a *app) serve(ctx context.Context, open bool) error {
	src, err := source.Open(ctx, a.cfg.Data)
	if err != nil {
		return err
	}

	server := web.NewServer(a.cfg.LayoutOptions())
	runner := loader.NewRunner(src, server)

	// Start the server first so clients can follow the initial load
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx, a.cfg.Web.Addr())
	}()

	if _, err := runner.Run(ctx, "startup"); err != nil {
		// Keep serving: a watched document may become valid later
		logging.Warn("initial load failed, serving without a model", "error", err)
	}

	if a.cfg.Watch.Enabled {
		if err := a.watch(ctx, src, runner); err != nil {
			return err
		}
	}

	if open {
		url := fmt.Sprintf("http://localhost:%d", a.cfg.Web.Port)
		logging.Info("opening browser", "url", url)
		openBrowser(url)
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("web server: %w", err)
	}
	return ctx.Err()
}

// watch reloads the document whenever it settles after a change. Only local
// documents can be watched.
func (a *app) watch(ctx context.Context, src source.Source, runner *loader.Runner) error {
	fileSrc, ok := src.(*source.FileSource)
	if !ok {
		logging.Warn("watching is only supported for local documents", "source", src.Name())
		return nil
	}

	fw, err := watcher.NewFileWatcher(fileSrc.Path())
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), a.cfg.Watch.Quiet, a.cfg.Watch.MaxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			plan := watcher.PlanReload(event)
			if !plan.Reload {
				logging.Warn("graph document unavailable, keeping current model",
					"reason", plan.Reason,
					"files", plan.ChangedFiles,
				)
				continue
			}
			// Errors are reported on the model_status topic by the runner
			runner.Run(ctx, plan.Reason)
		}
	}()
	return nil
}
