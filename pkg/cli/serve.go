package cli

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(opts *globalOptions, kinds *plugins.Kinds) *cobra.Command {
	var (
		addr            string
		shutdownTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preload plugins and serve metrics and health probes",
		Long: `Preload every plugin in the configured bases, then serve
/metrics, /health, /health/live and /health/ready until interrupted.

Readiness fails while the preload has failed. With an object store
configured, bases the bucket cannot resolve at startup are skipped with a
warning (an error under --strict), and an unreachable bucket degrades
health without failing it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts, kinds)
			if err != nil {
				return err
			}
			l, err := e.newLoader()
			if err != nil {
				return err
			}

			ctx := contextOf(cmd)

			var (
				mu         sync.Mutex
				preloadErr = errors.New("preload has not finished")
			)
			checker := observability.NewHealthChecker(Version)
			checker.Register("plugins", true, func(context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				return preloadErr
			})
			if e.store != nil {
				checker.Register("objectstore", false, e.store.Ping)
			}

			mux := http.NewServeMux()
			observability.RegisterHealthRoutes(mux, checker)
			observability.RegisterMetricsEndpoint(mux, e.registry)

			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}
			sm := observability.NewShutdownManager(e.log, server, shutdownTimeout)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				e.log.Infof("Serving metrics and health on %s", addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				n, err := l.Preload(ctx)
				mu.Lock()
				preloadErr = err
				mu.Unlock()
				if err != nil {
					e.log.WithError(err).Error("Preload failed")
					return nil
				}
				e.log.Infof("Preloaded %d plugin(s)", n)
				return nil
			})
			g.Go(func() error {
				return sm.WaitForShutdown(ctx)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9090", "listen address")
	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	return cmd
}
