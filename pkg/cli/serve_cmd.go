package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"donor-analytics/internal/app"
	"donor-analytics/internal/db"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with health monitoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return serve(ctx, rt, migrate)
		},
	}
	cmd.Flags().String("listen", "", "HTTP listen address (overrides LISTEN_ADDR)")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Apply pending migrations at startup")
	return cmd
}

// serve runs the HTTP server and the monitors until ctx is cancelled.
func serve(ctx context.Context, rt *runtime, migrate bool) error {
	logger := rt.logger
	pair, err := rt.openDB()
	if err != nil {
		return err
	}
	defer pair.Close() //nolint:errcheck

	if migrate {
		if _, err := db.RunMigrations(ctx, pair.Write, logger); err != nil {
			return err
		}
	}

	a, err := app.New(ctx, app.Deps{Cfg: rt.cfg, DB: pair, Logger: logger})
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}
	if err := a.Start(); err != nil {
		return fmt.Errorf("start monitors: %w", err)
	}
	defer a.Stop()

	srv := &http.Server{
		Addr:              rt.cfg.ListenAddr,
		Handler:           a.Router(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("donor analytics API listening", "addr", rt.cfg.ListenAddr,
			"url", "http://"+localHostForListenAddr(rt.cfg.ListenAddr)+"/api/v1/donations")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// localHostForListenAddr turns a listen address into a host:port a local
// client can dial. Wildcard and empty hosts become localhost.
func localHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
