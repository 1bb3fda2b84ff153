package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gourmet/src/state"
	"gourmet/src/token"
)

// signIn records the user on the session cookie and in the workspace gate,
// which in turn shows the markers.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, username string) error {
	claims, ok := token.FromContext(r.Context())
	if !ok {
		return errNoSession
	}
	if _, err := s.tokens.SetCookie(w, claims.SessionID, username); err != nil {
		return err
	}
	return s.store.Do(claims.SessionID, func(ws *state.Workspace) error {
		ws.Gate.SignIn(username)
		return nil
	})
}

// handleSignUp registers and immediately logs in the new user.
func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.SignUp(r.Context(), r.FormValue("username"), r.FormValue("password"), r.FormValue("email"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.signIn(w, r, u.Username); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/?notice=auth.signed_up", http.StatusSeeOther)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Login(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.signIn(w, r, u.Username); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/?notice=auth.logged_in", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := token.FromContext(r.Context())
	if !ok {
		s.fail(w, r, errNoSession)
		return
	}
	if _, err := s.tokens.SetCookie(w, claims.SessionID, ""); err != nil {
		s.fail(w, r, err)
		return
	}
	err := s.store.Do(claims.SessionID, func(ws *state.Workspace) error {
		ws.Gate.SignOut()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/?notice=auth.logged_out", http.StatusSeeOther)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleIssueToken exchanges credentials for a bearer token usable on /api.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		s.failJSON(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	u, err := s.users.Login(r.Context(), c.Username, c.Password)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	tok, err := s.tokens.Issue(token.NewSessionID(), u.Username)
	if err != nil {
		s.failJSON(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}
