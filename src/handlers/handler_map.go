package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gourmet/src/index"
	"gourmet/src/marker"
	"gourmet/src/render"
	"gourmet/src/state"
	"gourmet/src/token"
	"gourmet/src/types"
)

// notices that may be passed to the map page through ?notice=
var mapNotices = map[string]bool{
	"auth.login_required": true,
	"auth.logged_in":      true,
	"auth.logged_out":     true,
	"auth.signed_up":      true,
}

// workspace runs fn on the caller's session workspace after aligning its
// gate with the user named by the session token.
func (s *Server) workspace(r *http.Request, fn func(ws *state.Workspace) error) error {
	claims, ok := token.FromContext(r.Context())
	if !ok {
		return errNoSession
	}
	return s.store.Do(claims.SessionID, func(ws *state.Workspace) error {
		ws.SyncUser(claims.Username())
		return fn(ws)
	})
}

// ready returns the loaded index or the reason there is none.
func (s *Server) ready() (*index.Index, error) {
	status, ix, err := s.catalog.Snapshot()
	switch status {
	case index.StatusReady:
		return ix, nil
	case index.StatusFailed:
		return nil, err
	default:
		return nil, errLoading
	}
}

func (s *Server) handleMapPage(w http.ResponseWriter, r *http.Request) {
	s.catalog.Start(r.Context())
	status, ix, _ := s.catalog.Snapshot()

	model := render.MapModel{Status: status.String(), Viewport: marker.DefaultViewport}
	if n := r.URL.Query().Get("notice"); mapNotices[n] {
		model.Notice = n
	}
	err := s.workspace(r, func(ws *state.Workspace) error {
		if ix != nil {
			ws.EnsureBoard(ix)
		}
		s.render(w, r, http.StatusOK, "map_page", ws.Gate.User(), model)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleMapConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, marker.DefaultViewport)
}

type markersResponse struct {
	Visible bool            `json:"visible"`
	Markers []marker.Marker `json:"markers"`
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	ix, err := s.ready()
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	err = s.workspace(r, func(ws *state.Workspace) error {
		b := ws.EnsureBoard(ix)
		writeJSON(w, http.StatusOK, markersResponse{Visible: b.Visible(), Markers: b.Markers()})
		return nil
	})
	if err != nil {
		s.failJSON(w, r, err)
	}
}

func (s *Server) handleMarkerClick(w http.ResponseWriter, r *http.Request) {
	id := types.ShopID(chi.URLParam(r, "shopID"))
	ix, err := s.ready()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.workspace(r, func(ws *state.Workspace) error {
		p, closed, err := ws.EnsureBoard(ix).Click(id, ws.Gate)
		if err != nil {
			return err
		}
		if closed != nil {
			w.Header().Set("X-Closed-Popup", string(closed.Content.ShopID))
		}
		s.render(w, r, http.StatusOK, "popup", ws.Gate.User(), render.NewPopupModel(p))
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleShowReviews(w http.ResponseWriter, r *http.Request) {
	s.switchPanel(w, r, (*marker.Board).ShowReviews)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.switchPanel(w, r, (*marker.Board).Back)
}

func (s *Server) switchPanel(w http.ResponseWriter, r *http.Request, op func(*marker.Board, types.ShopID) (*marker.Popup, error)) {
	id := types.ShopID(chi.URLParam(r, "shopID"))
	ix, err := s.ready()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.workspace(r, func(ws *state.Workspace) error {
		p, err := op(ws.EnsureBoard(ix), id)
		if err != nil {
			return err
		}
		s.render(w, r, http.StatusOK, "popup", ws.Gate.User(), render.NewPopupModel(p))
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleClosePopup(w http.ResponseWriter, r *http.Request) {
	s.closePopup(w, r, (*marker.Board).CloseCurrent)
}

func (s *Server) handleBackground(w http.ResponseWriter, r *http.Request) {
	s.closePopup(w, r, (*marker.Board).Background)
}

func (s *Server) closePopup(w http.ResponseWriter, r *http.Request, op func(*marker.Board) *marker.Popup) {
	err := s.workspace(r, func(ws *state.Workspace) error {
		if ws.Board == nil {
			return nil
		}
		if closed := op(ws.Board); closed != nil {
			w.Header().Set("X-Closed-Popup", string(closed.Content.ShopID))
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
