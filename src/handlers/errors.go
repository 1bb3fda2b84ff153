package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gourmet/src/index"
	"gourmet/src/marker"
	"gourmet/src/render"
	"gourmet/src/session"
)

var (
	errLoading    = errors.New("data still loading")
	errBadRequest = errors.New("bad request")
	errNoSession  = errors.New("no session")

	errLoginRequired = errors.New("login required")
)

// classify maps an error to its status code and user-facing message key.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errLoading):
		return http.StatusServiceUnavailable, "data.loading"
	case errors.Is(err, index.ErrDataUnavailable):
		return http.StatusServiceUnavailable, "data.unavailable"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "error.bad_request"
	case errors.Is(err, session.ErrValidation):
		return http.StatusBadRequest, session.MessageKey(err)
	case errors.Is(err, session.ErrDuplicateIdentity):
		return http.StatusConflict, session.MessageKey(err)
	case errors.Is(err, session.ErrAuthMismatch):
		return http.StatusUnauthorized, session.MessageKey(err)
	case errors.Is(err, marker.ErrNotAuthenticated):
		return http.StatusForbidden, "map.login_required"
	case errors.Is(err, errLoginRequired):
		return http.StatusForbidden, "auth.login_required"
	case errors.Is(err, marker.ErrUnknownShop):
		return http.StatusNotFound, "error.not_found"
	case errors.Is(err, marker.ErrNotOpen):
		return http.StatusConflict, "error.popup_not_open"
	default:
		return http.StatusInternalServerError, "error.internal"
	}
}

func (s *Server) logFailure(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		return
	}
	s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
}

// fail answers with a localized message fragment.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, key := classify(err)
	s.logFailure(r, status, err)
	msg := render.Message{Kind: "error", Text: s.msgs.T(s.lang(r.Context()), key)}
	s.render(w, r, status, "message", "", msg)
}

// failJSON answers API callers with {"error": "..."}.
func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status, key := classify(err)
	s.logFailure(r, status, err)
	writeJSON(w, status, map[string]string{"error": s.msgs.T(s.lang(r.Context()), key)})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name, user string, data any) {
	var buf bytes.Buffer
	if err := s.html.Render(&buf, name, s.lang(r.Context()), user, data); err != nil {
		s.logger.Error("render failed", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
