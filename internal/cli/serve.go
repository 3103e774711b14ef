package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/encore/pkg/api"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scoring and the ledger over HTTP",
		Long: `Serve scoring and the ledger over HTTP.

Routes:
  GET  /healthz
  GET  /problems/{id}
  POST /problems/{id}/score
  GET  /ledger
  GET  /ledger/{id}

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			runner, err := c.newRunner(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := &http.Server{
				Handler: api.New(runner, api.Options{
					RequestTimeout: cfg.Server.RequestTimeout.Duration,
					MaxBodyBytes:   cfg.Server.MaxBodyBytes,
				}).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			printSuccess("Listening on %s", StyleLink.Render("http://"+ln.Addr().String()))
			return serve(ctx, srv, ln, func() {
				logger.Info("shutting down", "timeout", shutdownTimeout)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")

	return cmd
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
// A shutdown triggered by ctx is not an error.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, onShutdown func()) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	if onShutdown != nil {
		onShutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
