package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/econgpt/internal/adapters/http/api"
	"github.com/okian/econgpt/internal/adapters/http/site"
	"github.com/okian/econgpt/internal/adapters/http/swagger"
	service "github.com/okian/econgpt/internal/app"
	"github.com/okian/econgpt/internal/config"
	"github.com/okian/econgpt/pkg/logger"
	"github.com/okian/econgpt/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 90 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (overrides addr)")
	cmd.Flags().Bool("secure-cookie", false, "mark the session cookie Secure")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := configFrom(ctx)
	log := logger.Get()

	if cmd.Flags().Lookup("addr") != nil {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
	}
	var secure bool
	if cmd.Flags().Lookup("secure-cookie") != nil {
		secure, _ = cmd.Flags().GetBool("secure-cookie")
	}

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	go metrics.CollectSystem(ctx, 0)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, secure),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			return err
		}
	}
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
	return nil
}

// newMux registers the API, docs and UI routes.
func newMux(ctx context.Context, cfg *config.Config, svc *service.Service, secureCookie bool) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc,
		api.WithAskRateLimit(cfg.HTTPRequestsPerSecond, cfg.HTTPBurst),
		api.WithSecureCookie(secureCookie),
		api.WithLogger(logger.Named("api")),
	).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}
