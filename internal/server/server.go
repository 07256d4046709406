// Package server exposes the section rewrite over HTTP and WebSocket.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-docsection/internal/config"
	"github.com/benjaminschreck/go-docsection/internal/logging"
	"github.com/benjaminschreck/go-docsection/internal/storage"
	"github.com/benjaminschreck/go-docsection/pkg/section"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP handlers and the background workers they rely on.
type Server struct {
	config   *config.Config
	logger   zerolog.Logger
	version  string
	started  time.Time
	registry *section.Registry
	rewriter *section.Rewriter
	store    *storage.Store
	uploads  *UploadStore
	upgrader websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithRegistry replaces the preset registry built from the configuration.
func WithRegistry(registry *section.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// New validates cfg and prepares storage, presets and the rewriter.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("invalid config: %w", err)
	}

	s := &Server{
		config:  cfg,
		logger:  zerolog.Nop(),
		version: "dev",
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.registry == nil && cfg.PresetDir == "" {
		s.registry = section.NewRegistry()
	} else if s.registry == nil {
		registry, err := section.NewRegistryWithDirectory(cfg.PresetDir)
		if err != nil {
			return nil, errors.Errorf("loading presets: %w", err)
		}
		s.registry = registry
	}
	s.registry.SetLogger(s.logger.With().Str("component", "presets").Logger())
	if _, err := s.registry.Lookup(cfg.Preset); err != nil {
		return nil, errors.Errorf("default preset: %w", err)
	}

	store, err := storage.New(cfg.StorageDir,
		storage.WithRetention(cfg.Retention),
		storage.WithLogger(s.logger.With().Str("component", "storage").Logger()),
	)
	if err != nil {
		return nil, err
	}
	s.store = store

	s.uploads = NewUploadStore(UploadConfig{
		MaxUploads: cfg.MaxUploads,
		TTL:        cfg.UploadTTL,
		MaxBytes:   cfg.MaxUploadBytes,
	})

	s.rewriter = section.NewRewriter(
		section.WithLogger(s.logger.With().Str("component", "rewriter").Logger()),
		section.WithPresets(s.registry),
		section.WithPreset(cfg.Preset),
		section.WithMarkers(cfg.StartMarker, cfg.EndMarker),
	)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 1024,
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /generate_docx", s.handleGenerate)
	mux.HandleFunc("POST /generate_docx/inline", s.handleGenerateInline)
	mux.HandleFunc("POST /generate_docx/upload", s.handleGenerateUpload)
	mux.HandleFunc("POST /uploads", s.handleCreateUpload)
	mux.HandleFunc("PUT /uploads/{id}/chunks/{index}", s.handleUploadChunk)
	mux.HandleFunc("POST /uploads/{id}/complete", s.handleCompleteUpload)
	mux.HandleFunc("DELETE /uploads/{id}", s.handleDeleteUpload)
	mux.HandleFunc("GET /ws/generate", s.handleWebSocket)
	mux.HandleFunc("GET /download/{name}", s.handleDownload)
	mux.HandleFunc("GET /presets", s.handlePresets)
	mux.HandleFunc("GET /health", s.handleHealth)

	return logging.Middleware(s.logger)(mux)
}

// Run listens on the configured port and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return errors.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln together with the storage janitor, the
// upload expiry loop and, when enabled, the preset watcher. It returns after
// all of them have stopped.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		s.logger.Info().
			Str("addr", ln.Addr().String()).
			Str("storage_dir", s.store.Dir()).
			Str("preset", s.config.Preset).
			Msg("Server started")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Errorf("serving http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return s.store.Run(ctx, s.config.JanitorInterval)
	})

	g.Go(func() error {
		return s.expireUploads(ctx)
	})

	if s.config.WatchPresets && s.config.PresetDir != "" {
		g.Go(func() error {
			return s.registry.Run(ctx)
		})
	}

	return g.Wait()
}

func (s *Server) expireUploads(ctx context.Context) error {
	if s.config.UploadTTL <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(s.config.UploadTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.uploads.Expire(); n > 0 {
				s.logger.Debug().Int("expired", n).Msg("Dropped idle uploads")
			}
		}
	}
}
