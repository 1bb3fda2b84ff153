// Package handlers exposes the gourmet map and list over HTTP. Every browser
// session gets its own workspace; responses are full pages or HTML fragments.
package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"gourmet/src/i18n"
	"gourmet/src/index"
	"gourmet/src/render"
	"gourmet/src/session"
	"gourmet/src/state"
	"gourmet/src/token"
)

type Deps struct {
	Catalog *index.Catalog
	Store   *state.Store
	Users   *session.Service
	Tokens  *token.Issuer
	HTML    *render.HTML
	Msgs    *i18n.Bundle
	Logger  *zap.Logger
	// Images is the directory served under /images/; empty disables it.
	Images string
}

type Server struct {
	catalog *index.Catalog
	store   *state.Store
	users   *session.Service
	tokens  *token.Issuer
	html    *render.HTML
	msgs    *i18n.Bundle
	logger  *zap.Logger
	images  string
}

func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		catalog: d.Catalog,
		store:   d.Store,
		users:   d.Users,
		tokens:  d.Tokens,
		html:    d.HTML,
		msgs:    d.Msgs,
		logger:  logger,
		images:  d.Images,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	if s.images != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(s.images))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/token", s.handleIssueToken)
		r.With(s.tokens.RequireUser).Get("/shops", s.handleShopsAPI)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.tokens.Middleware)
		r.Use(s.locale)

		r.Get("/", s.handleMapPage)
		r.Route("/map", func(r chi.Router) {
			r.Get("/config", s.handleMapConfig)
			r.Get("/markers", s.handleMarkers)
			r.Post("/markers/{shopID}/click", s.handleMarkerClick)
			r.Post("/popup/{shopID}/reviews", s.handleShowReviews)
			r.Post("/popup/{shopID}/back", s.handleBack)
			r.Post("/popup/close", s.handleClosePopup)
			r.Post("/background", s.handleBackground)
		})

		r.Route("/list", func(r chi.Router) {
			r.Get("/", s.handleListPage)
			r.Post("/search", s.handleSearch)
			r.Post("/sort", s.handleSort)
			r.Post("/mode", s.handleMode)
			r.Post("/page/{n}", s.handlePage)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignUp)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})
	})
	return r
}
