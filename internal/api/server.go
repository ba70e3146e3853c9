// Package api exposes the portfolio over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/aTrapDeer/portfolio-backend/internal/auth"
	"github.com/aTrapDeer/portfolio-backend/internal/db"
	"github.com/aTrapDeer/portfolio-backend/internal/ratelimit"
	"github.com/aTrapDeer/portfolio-backend/internal/revalidate"
	"github.com/aTrapDeer/portfolio-backend/internal/storage"
	"github.com/aTrapDeer/portfolio-backend/internal/upload"
)

const defaultMaxBody = 1 << 20

type Options struct {
	Store          *storage.Storage
	Gate           *auth.Gate
	MessageLimiter *ratelimit.Limiter
	Uploader       upload.Backend
	// UploadDir, when set, is served at /uploads/.
	UploadDir      string
	UploadMaxBytes int64
	Notifier       *revalidate.Notifier
	Health         func(context.Context) db.HealthReport
	Log            *slog.Logger
	Origins        []string
	TrustProxy     bool
	MaxBodyBytes   int64
	Now            func() time.Time
}

type Server struct {
	store          *storage.Storage
	gate           *auth.Gate
	messageLimiter *ratelimit.Limiter
	uploader       upload.Backend
	uploadDir      string
	uploadMax      int64
	notifier       *revalidate.Notifier
	health         func(context.Context) db.HealthReport
	log            *slog.Logger
	origins        []string
	trustProxy     bool
	maxBody        int64
	now            func() time.Time
}

func New(opts Options) *Server {
	s := &Server{
		store:          opts.Store,
		gate:           opts.Gate,
		messageLimiter: opts.MessageLimiter,
		uploader:       opts.Uploader,
		uploadDir:      opts.UploadDir,
		uploadMax:      opts.UploadMaxBytes,
		notifier:       opts.Notifier,
		health:         opts.Health,
		log:            opts.Log,
		origins:        opts.Origins,
		trustProxy:     opts.TrustProxy,
		maxBody:        opts.MaxBodyBytes,
		now:            opts.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBody
	}
	if s.uploadMax <= 0 {
		s.uploadMax = 5 << 20
	}
	if s.messageLimiter == nil {
		s.messageLimiter = ratelimit.PerHour(5)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	admin := s.requireAdmin

	routeContent(s, mux, s.projects())
	routeContent(s, mux, s.skills())
	routeContent(s, mux, s.experiences())

	messages := s.messages()
	mux.Handle("GET /api/messages", admin(s.handle(listHandler(messages))))
	mux.Handle("GET /api/messages/{id}", admin(s.handle(getHandler(messages))))
	mux.Handle("POST /api/messages", s.limitMessages(s.handle(createHandler(s, messages))))
	mux.Handle("DELETE /api/messages/{id}", admin(s.handle(deleteHandler(s, messages))))

	mux.Handle("POST /api/auth/login", s.handle(s.login))
	mux.Handle("POST /api/auth/logout", admin(s.handle(s.logout)))
	mux.Handle("GET /api/auth/verify", admin(s.handle(s.verify)))

	mux.Handle("POST /api/upload", admin(s.handle(s.uploadImage)))
	if s.uploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadDir))))
	}

	mux.HandleFunc("GET /api/health", s.healthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})

	corsOpts := cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
	}
	if len(s.origins) == 0 {
		// rs/cors treats an empty list as allow-all
		corsOpts.AllowOriginFunc = func(string) bool { return false }
	}
	c := cors.New(corsOpts)
	return c.Handler(s.recoverer(s.logRequests(mux)))
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, db.HealthReport{Healthy: true, Message: "OK"})
		return
	}
	report := s.health(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
