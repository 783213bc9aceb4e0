package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/gradetracker/pkg/gradebook/httpchi"
)

func newServeCommand(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ops API (health, scales, preview, single-course sync)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.config(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.HTTPAddr = addr
			}
			if err := cfg.RequireToken(); err != nil {
				return err
			}
			t, err := openTracker(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer t.Close()

			r := chi.NewRouter()
			r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins: cfg.CORSOrigins,
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type"},
				ExposedHeaders: []string{"Content-Length"},
				MaxAge:         300,
			}))
			httpchi.New(t.syncer, t.scales).Routes(r)

			srv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (env HTTP_ADDR)")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}
