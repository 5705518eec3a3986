// Package server exposes subjects, summaries, frames and rendered charts over
// HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhineetsingh10/aml2practice/src/chartgeom"
	"github.com/abhineetsingh10/aml2practice/src/config"
	"github.com/abhineetsingh10/aml2practice/src/progress"
	"github.com/abhineetsingh10/aml2practice/src/render"
)

type Server struct {
	cfg     *config.Config
	data    *progress.Dataset
	opts    chartgeom.Options
	palette render.Palette
	metrics *Metrics
	router  *gin.Engine
}

// New wires the router. The dataset may still be unloaded; data endpoints
// answer 503 until the first successful Reload.
func New(cfg *config.Config, data *progress.Dataset) (*Server, error) {
	opts, err := cfg.Chart.Options()
	if err != nil {
		return nil, fmt.Errorf("chart options: %w", err)
	}
	if _, err := render.New(cfg.Chart.Backend, render.LightPalette); err != nil {
		return nil, err
	}
	if _, err := render.ParseFormat(cfg.Chart.Format); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:     cfg,
		data:    data,
		opts:    opts,
		palette: render.PaletteByName(cfg.Chart.Palette),
		metrics: NewMetrics(),
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), Secure(), s.metrics.Middleware())

	r.GET("/", s.index)
	r.GET("/health", s.health)
	r.GET("/metrics", s.metrics.Handler())

	api := r.Group("/api")
	{
		api.GET("/subjects", s.subjects)
		api.GET("/subjects/:id/summary", s.summary)
		api.GET("/subjects/:id/frame", s.frame)
		api.GET("/issues", s.issues)
	}
	r.GET("/chart", RateLimiter(s.cfg.Server.RateLimit.PerSecond, s.cfg.Server.RateLimit.Burst), s.chart)
	return r
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Load performs a reload and records it under trigger.
func (s *Server) Load(ctx context.Context, trigger string) error {
	err := s.data.Reload(ctx)
	s.metrics.observeReload(trigger, err)
	return err
}

// Run loads the data, watches a file-backed source for changes and serves
// until ctx is cancelled, then shuts down within the configured grace period.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Load(ctx, "startup"); err != nil {
		progress.Warnf("initial load failed, serving 503 until a reload succeeds: %v", err)
	}
	if path, ok := s.data.LocalPath(); ok && s.cfg.Server.WatchData {
		go func() {
			err := progress.WatchFile(ctx, path, s.cfg.Server.WatchDebounce, func() {
				_ = s.Load(ctx, "watch")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				progress.Errorf("watch %s: %v", path, err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + s.cfg.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		progress.Infof("serving %s on %s", s.data.Source(), srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	progress.Infof("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
