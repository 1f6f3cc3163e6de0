// Package dashboard serves the housing explorer web UI and its JSON API.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"housing-explorer/services"
	"housing-explorer/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the dashboard HTTP server.
type Server struct {
	explorer *services.Explorer
	cache    *services.DatasetCache
	addr     string
	watch    bool
	logger   *utils.Logger
	tmpl     *template.Template
}

// Config holds configuration for the dashboard server.
type Config struct {
	Explorer *services.Explorer
	Cache    *services.DatasetCache
	Addr     string
	Watch    bool
	Logger   *utils.Logger
}

// NewServer creates a dashboard server and parses its templates.
func NewServer(cfg Config) (*Server, error) {
	tmpl, err := template.New("index.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse templates: %w", err)
	}

	return &Server{
		explorer: cfg.Explorer,
		cache:    cfg.Cache,
		addr:     cfg.Addr,
		watch:    cfg.Watch,
		logger:   cfg.Logger,
		tmpl:     tmpl,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)
	r.Get("/export.csv", s.handleExportCSV)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/explore", s.handleAPIExplore)
		r.Get("/summary", s.handleAPISummary)
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled or the listener
// fails. When watching is enabled, dataset changes invalidate the cache.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchDataset(egctx)
		})
	}

	eg.Go(func() error {
		s.logger.Info("[dashboard] Serving %s on http://localhost%s", s.explorer.Path(), s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("dashboard: serve: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("[dashboard] Shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("[dashboard] %s %s → %d (%v)", r.Method, r.URL.RequestURI(), ww.Status(), time.Since(start).Round(time.Microsecond))
	})
}
