package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/scribed/internal/config"
	"github.com/snarg/scribed/internal/metrics"
)

// Deps are the external-service clients the API delegates to. Everything
// non-trivial happens on the other side of one of these.
type Deps struct {
	Transcriber Transcriber
	Sessions    SessionVerifier
	Accounts    AccountStore
	History     HistoryRecorder
	Payments    CheckoutCreator
	Mailer      EmailSender
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, deps Deps, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(CORS(cfg.CORSOrigin))
	r.Use(metrics.InstrumentHandler)

	// Public endpoints
	health := NewHealthHandler(version, startTime, cfg.TranscribeBaseURL, cfg.BackendURL != "")
	r.Get("/api/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	accounts := NewAccountHandler(deps.Accounts, log)
	r.Get("/api/stats", accounts.Stats)

	contact := NewContactHandler(deps.Mailer, log)
	r.Post("/api/contact", contact.Send)

	// Session-scoped endpoints: reject before reading any payload.
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(deps.Sessions))

		upload := NewUploadHandler(deps.Transcriber, deps.History, cfg.MaxUploadBytes, log)
		r.Post("/api/upload", upload.Upload)

		checkout := NewCheckoutHandler(deps.Payments, log)
		r.Post("/api/create-checkout-session", checkout.Create)

		r.Get("/api/credits", accounts.Credits)
		r.Get("/api/history", accounts.History)
	})

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
