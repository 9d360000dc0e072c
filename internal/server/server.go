package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/OldUser101/tars/internal/build"
	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/livereload"
	"github.com/OldUser101/tars/internal/logfields"
	"github.com/OldUser101/tars/internal/metrics"
	"github.com/OldUser101/tars/internal/server/middleware"
)

const (
	shutdownTimeout = 5 * time.Second
	defaultDebounce = 100 * time.Millisecond
)

// Builder runs one full build.
type Builder interface {
	Build(ctx context.Context) (*build.Report, error)
}

// Options configure a Server.
type Options struct {
	// Addr is the host:port to listen on. Ignored when Listener is set.
	Addr string
	// Listener, when set, is served instead of listening on Addr.
	Listener net.Listener
	// OutputDir is the published directory served at the root.
	OutputDir string
	// WatchDirs are the input trees that trigger rebuilds.
	WatchDirs []string
	// Debounce batches events arriving within the window into one rebuild.
	Debounce time.Duration
	// Registry, when set, is served at /metrics.
	Registry *prom.Registry
	Logger   *slog.Logger
}

// Server is the dev server.
type Server struct {
	opts    Options
	builder Builder
	hub     *livereload.Hub
	logger  *slog.Logger
}

// New returns a Server that rebuilds with b and announces builds on hub.
func New(b Builder, hub *livereload.Hub, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if hub == nil {
		hub = livereload.NewHub(nil)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	return &Server{opts: opts, builder: b, hub: hub, logger: opts.Logger}
}

// Handler returns the HTTP surface: the reload stream, optional metrics and
// the output tree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(livereload.Path, s.hub)
	if s.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	mux.Handle("/", middleware.NoCache(http.FileServer(http.Dir(s.opts.OutputDir))))
	return middleware.Chain(s.logger, ferrors.NewHTTPErrorAdapter(s.logger))(mux)
}

// Run binds the listener, builds once and serves until ctx is canceled. A
// failed build is logged and the server keeps running; failure to bind is
// returned.
func (s *Server) Run(ctx context.Context) error {
	ln := s.opts.Listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.opts.Addr)
		if err != nil {
			return ferrors.NetworkError("failed to bind dev server").WithCause(err).
				WithContext("addr", s.opts.Addr).Build()
		}
	}

	watcher, err := newWatcher(s.opts.WatchDirs)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = watcher.Close() }()

	s.rebuild(ctx, "initial")

	deb := newDebouncer(s.opts.Debounce)
	defer deb.Stop()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Serving site", logfields.Addr("http://"+ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return ferrors.NetworkError("dev server stopped").WithCause(err).Build()
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down dev server")
		s.hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		return s.watchLoop(gctx, watcher, deb)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-deb.C():
				s.rebuild(gctx, "change")
			}
		}
	})

	return g.Wait()
}

func (s *Server) watchLoop(ctx context.Context, w *watcher, deb *debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.handle(ev) {
				deb.Trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// rebuild runs one build and, when it succeeds, broadcasts a reload.
func (s *Server) rebuild(ctx context.Context, reason string) {
	s.logger.Info("Rebuilding site", slog.String("reason", reason))
	report, err := s.builder.Build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Rebuild failed; serving previous output",
			slog.String("category", string(ferrors.CategoryOf(err))),
			logfields.Error(err))
		return
	}
	delivered, dropped := s.hub.Broadcast()
	s.logger.Info(report.Summary(),
		logfields.BuildID(report.ID),
		logfields.Clients(delivered+dropped))
}
