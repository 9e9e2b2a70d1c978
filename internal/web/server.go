package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tablero/internal/config"
	"tablero/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	cfg      config.Config
	db       *storage.DB
	log      *zap.Logger
	sessions *sessionStore
	metrics  *metrics
	tmpl     *template.Template
}

func NewServer(cfg config.Config, db *storage.DB, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		db:       db,
		log:      log,
		sessions: newSessionStore(time.Duration(cfg.SessionTTLMin)*time.Minute, cfg.SessionMax),
		metrics:  newMetrics(),
		tmpl:     tmpl,
	}, nil
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", s.metrics.handler())

	r.Get("/", s.handleIndex)
	r.Route("/{dashboard}", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Post("/inbox", s.handleInbox)
		r.Get("/{id}", s.handleDashboard)
		r.Get("/{id}/export.xlsx", s.handleExport)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("dashboard server listening", zap.String("addr", s.cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
