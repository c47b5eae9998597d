package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-fleetform/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve picklist search over HTTP",
		Long: `Serves GET <route>/{list}?q=&limit=&page=&locale= returning
{"data":[{"value","label","labelI18n"}]} from the shared option cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, provider, err := a.prepare()
			if err != nil {
				return err
			}
			logger := logging.ModuleLogger(provider, "server")
			o, err := a.orchestrator(ctx, cfg, provider)
			if err != nil {
				return err
			}
			defer o.Close()

			mux := http.NewServeMux()
			pattern, err := o.Picklists().RegisterRoutes(mux, "")
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving picklists", "addr", addr, "pattern", pattern)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
