package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gourmet/src/index"
	"gourmet/src/render"
	"gourmet/src/state"
	"gourmet/src/types"
	"gourmet/src/view"
)

func listModel(status index.Status, ix *index.Index, st view.State) render.ListModel {
	m := render.ListModel{
		Status:  status.String(),
		Ready:   ix != nil,
		Results: render.BuildResults(st),
	}
	if ix != nil {
		m.Areas = ix.Areas()
	}
	return m
}

// handleListPage starts a fresh list view. Anonymous visitors go back to the map.
func (s *Server) handleListPage(w http.ResponseWriter, r *http.Request) {
	s.catalog.Start(r.Context())
	status, ix, _ := s.catalog.Snapshot()

	err := s.workspace(r, func(ws *state.Workspace) error {
		if !ws.Gate.IsAuthenticated() {
			http.Redirect(w, r, "/?notice=auth.login_required", http.StatusSeeOther)
			return nil
		}
		ws.View = view.New()
		s.render(w, r, http.StatusOK, "list_page", ws.Gate.User(), listModel(status, ix, ws.View))
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
	}
}

// updateList applies op to the session's list state and re-renders the results.
func (s *Server) updateList(w http.ResponseWriter, r *http.Request, op func(ix *index.Index, st view.State) (view.State, bool)) {
	ix, err := s.ready()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.workspace(r, func(ws *state.Workspace) error {
		if !ws.Gate.IsAuthenticated() {
			return errLoginRequired
		}
		next, redraw := op(ix, ws.View)
		ws.View = next
		if !redraw {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}
		s.render(w, r, http.StatusOK, "list_results", ws.Gate.User(), listModel(index.StatusReady, ix, next))
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	area := r.FormValue("area")
	s.updateList(w, r, func(ix *index.Index, st view.State) (view.State, bool) {
		return st.SelectArea(ix, area), true
	})
}

func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	s.updateList(w, r, func(_ *index.Index, st view.State) (view.State, bool) {
		return st.ToggleSort(), true
	})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	s.updateList(w, r, func(_ *index.Index, st view.State) (view.State, bool) {
		return st.ToggleMode(), true
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: page %q", errBadRequest, chi.URLParam(r, "n")))
		return
	}
	s.updateList(w, r, func(_ *index.Index, st view.State) (view.State, bool) {
		return st.ChangePage(n)
	})
}

// ShopsPage is one page of an area's shops in source order.
type ShopsPage struct {
	Name     string       `json:"name"`
	Total    int          `json:"total"`
	Shops    []types.Shop `json:"shops"`
	Page     int          `json:"page"`
	LastPage int          `json:"last_page"`
	PrevPage int          `json:"prev_page,omitempty"`
	NextPage int          `json:"next_page,omitempty"`
}

func shopsPage(ix *index.Index, area string, page int) (*ShopsPage, error) {
	shops := ix.Area(area)
	lastPage := render.PageCount(len(shops))
	if page < 1 || (lastPage > 0 && page > lastPage) {
		return nil, fmt.Errorf("%w: page %d of %d", errBadRequest, page, lastPage)
	}

	data := &ShopsPage{
		Name:     area,
		Total:    len(shops),
		Shops:    []types.Shop{},
		Page:     page,
		LastPage: lastPage,
	}
	start := (page - 1) * view.PageSize
	if start < len(shops) {
		end := min(start+view.PageSize, len(shops))
		data.Shops = shops[start:end]
	}
	if page > 1 {
		data.PrevPage = page - 1
	}
	if page < lastPage {
		data.NextPage = page + 1
	}
	return data, nil
}

// handleShopsAPI serves GET /api/shops?area=&page= for bearer-token holders.
func (s *Server) handleShopsAPI(w http.ResponseWriter, r *http.Request) {
	area := r.URL.Query().Get("area")
	if area == "" {
		s.failJSON(w, r, fmt.Errorf("%w: missing area", errBadRequest))
		return
	}
	pageStr := r.URL.Query().Get("page")
	if pageStr == "" {
		pageStr = "1"
	}
	page, err := strconv.Atoi(pageStr)
	if err != nil {
		s.failJSON(w, r, fmt.Errorf("%w: invalid page %q", errBadRequest, pageStr))
		return
	}

	ix, err := s.ready()
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	data, err := shopsPage(ix, area, page)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}
