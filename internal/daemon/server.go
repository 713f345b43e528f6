// Package daemon serves the resolution engine to the browser extension
// over a loopback HTTP endpoint.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/runnerr0/visited/internal/config"
	"github.com/runnerr0/visited/internal/history"
	"github.com/runnerr0/visited/internal/metrics"
	"github.com/runnerr0/visited/internal/storage"
)

// Store is everything the daemon needs from the history database.
type Store interface {
	history.Store
	history.StatsStore
	AddVisit(ctx context.Context, visit *storage.Visit) error
	PruneExpired(ctx context.Context, olderThan time.Time) (int64, error)
}

// Server wraps the Fiber app and the resolution engine behind it.
type Server struct {
	app        *fiber.App
	cfg        atomic.Pointer[config.Config]
	configPath string
	store      Store
	resolver   *history.Resolver
	timing     *history.TimingRecorder
	metrics    *metrics.Metrics
	dispatch   map[string]messageHandler
	log        zerolog.Logger
	version    string
	now        func() time.Time
}

// New builds a server over store. Search limit, sample size, default
// average and prune schedule are read from cfg once; everything else is
// read from the current config on each request.
func New(cfg *config.Config, store Store, m *metrics.Metrics, log zerolog.Logger, version string) *Server {
	log = log.With().Str("component", "daemon").Logger()

	cache := history.NewVisitCache(cfg.Resolution.MaxCacheSize, metrics.NewCacheSizeSink(m, store, log))
	s := &Server{
		store:   store,
		metrics: m,
		log:     log,
		version: version,
		now:     time.Now,
		resolver: history.NewResolver(store, cache, log).
			WithObserver(m).
			WithSearchLimit(cfg.Resolution.SearchLimit).
			WithSampleSize(cfg.Resolution.SampleSize),
		timing: history.NewTimingRecorder(store, cfg.DefaultAverage(), log),
	}
	s.cfg.Store(cfg)
	s.dispatch = s.handlers()

	s.app = fiber.New(fiber.Config{
		AppName:      "visited",
		BodyLimit:    cfg.Daemon.MaxRequestSize,
		ErrorHandler: s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)

	s.app.Get("/status", s.handleStatus)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))
	s.app.Post("/v1/messages", s.handleMessage)

	return s
}

// WithConfigPath enables hot reload of the file at path while Run is active.
func (s *Server) WithConfigPath(path string) *Server {
	s.configPath = path
	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Config returns the current config snapshot.
func (s *Server) Config() *config.Config {
	return s.cfg.Load()
}

// SetConfig replaces the config snapshot used by subsequent requests.
func (s *Server) SetConfig(cfg *config.Config) {
	s.cfg.Store(cfg)
	s.log.Info().
		Bool("use_cache", cfg.Resolution.UseCache).
		Int("urls_limit", cfg.Resolution.URLsLimit).
		Int("max_cache_size", cfg.Resolution.MaxCacheSize).
		Msg("configuration reloaded")
}

// Run serves on addr until ctx is done, pruning on the retention schedule
// and watching the config file when enabled.
func (s *Server) Run(ctx context.Context, addr string) error {
	cfg := s.Config()

	if cfg.Retention.PruneSchedule != "" {
		c, err := s.schedulePruning(cfg.Retention.PruneSchedule)
		if err != nil {
			return err
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	if s.configPath != "" && cfg.Daemon.WatchConfig {
		go func() {
			if err := config.Watch(ctx, s.configPath, s.log, s.SetConfig); err != nil {
				s.log.Warn().Err(err).Str("path", s.configPath).Msg("config reload disabled")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	s.log.Info().Str("addr", addr).Str("version", s.version).Msg("daemon listening")

	select {
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) schedulePruning(spec string) (*cron.Cron, error) {
	schedule, err := config.ParseSchedule(spec)
	if err != nil {
		return nil, fmt.Errorf("prune schedule: %w", err)
	}
	c := cron.New(cron.WithLogger(cronLogger{log: s.log}))
	c.Schedule(schedule, cron.FuncJob(func() {
		if _, err := s.Prune(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("scheduled prune failed")
		}
	}))
	return c, nil
}

// Prune deletes visits older than the retention window. Zero retention
// days keeps everything.
func (s *Server) Prune(ctx context.Context) (int64, error) {
	days := s.Config().Retention.Days
	if days <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	n, err := s.store.PruneExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	s.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("pruned expired visits")
	return n, nil
}

func (s *Server) logRequests(c fiber.Ctx) error {
	id := xid.New().String()
	c.Set("X-Request-ID", id)
	log := s.log.With().Str("request_id", id).Logger()
	c.Locals(loggerKey{}, log)

	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("request")
	return err
}

type loggerKey struct{}

// requestLog returns the request-scoped logger set by logRequests, or
// fallback when the middleware did not run.
func requestLog(c fiber.Ctx, fallback *zerolog.Logger) *zerolog.Logger {
	if log, ok := c.Locals(loggerKey{}).(zerolog.Logger); ok {
		return &log
	}
	return fallback
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		requestLog(c, &s.log).Error().Err(err).Msg("request failed")
	}
	return jsonError(c, code, message)
}

func (s *Server) handleStatus(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": s.version,
	})
}

// jsonError returns an error response with the given HTTP status code.
func jsonError(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"error":  message,
	})
}
