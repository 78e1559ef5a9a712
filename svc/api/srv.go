package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"

	"github.com/hkauso/pastemd/cfg"
	"github.com/hkauso/pastemd/metrics"
	"github.com/hkauso/pastemd/svc/auth"
	"github.com/hkauso/pastemd/svc/db"
	"github.com/hkauso/pastemd/svc/lim"
	"github.com/hkauso/pastemd/svc/svc"
	"github.com/hkauso/pastemd/svc/util"
)

type Server struct {
	router     *chi.Mux
	cfg        *cfg.Cfg
	store      db.Store
	rdb        *db.Redis
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, p *svc.Paste, docs *svc.Documents, l *lim.Limiter, store db.Store, rdb *db.Redis, provider auth.Provider) *Server {
	r := chi.NewRouter()
	mw := NewMw(l, c, provider)
	s := &Server{
		router: r,
		cfg:    c,
		store:  store,
		rdb:    rdb,
	}
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/health", s.Health)
		r.Get("/ready", s.Ready)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Handle("/metrics", mw.BasicAuthMetrics(promhttp.Handler()))
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("request_id", util.GetRequestID(req.Context())).
				Msg("http request")
			metrics.RequestDuration.
				WithLabelValues(req.Method, chi.RouteContext(req.Context()).RoutePattern(), strconv.Itoa(status)).
				Observe(dur.Seconds())
		}))
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.CORS)
		r.Use(mw.JSONContentType)
		r.Use(mw.AnomalyDetection)
		r.Use(mw.Identity)
		hdl := &Hdl{paste: p, docs: docs, cfg: c}
		r.Route("/api", func(r chi.Router) {
			r.With(mw.RateLimit("create")).Post("/new", hdl.CreatePaste)
			r.With(mw.RateLimit("create")).Post("/clone", hdl.ClonePaste)
			if c.DocumentsEnabled {
				r.Route("/docs/{namespace}", func(r chi.Router) {
					r.With(mw.RateLimit("create")).Post("/", hdl.CreateDocument)
					r.With(mw.RateLimit("read")).Get("/", hdl.ListDocuments)
					r.With(mw.RateLimit("read")).Get("/{id}", hdl.GetDocument)
					r.With(mw.RateLimit("edit")).Post("/{id}", hdl.UpdateDocument)
					r.With(mw.RateLimit("edit")).Post("/{id}/delete", hdl.DeleteDocument)
				})
			}
			r.With(mw.RateLimit("read")).Get("/{url}", hdl.GetPaste)
			r.With(mw.RateLimit("read")).Get("/{url}/views", hdl.GetViewCount)
			r.With(mw.RateLimit("edit")).Post("/{url}/delete", hdl.DeletePaste)
			r.With(mw.RateLimit("edit")).Post("/{url}/edit", hdl.EditPaste)
			r.With(mw.RateLimit("edit")).Post("/{url}/metadata", hdl.EditPasteMetadata)
			r.NotFound(NotFound)
		})
		r.NotFound(NotFound)
	})
	s.httpServer = &http.Server{
		Addr:           ":" + c.Port,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 256 * 1024,
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
