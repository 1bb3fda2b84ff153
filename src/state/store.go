package state

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"gourmet/src/marker"
	"gourmet/src/session"
	"gourmet/src/view"
)

// Workspace is everything one browser session owns: the list view, the
// marker board and the authentication gate driving marker visibility.
type Workspace struct {
	View  view.State
	Gate  *session.Gate
	Board *marker.Board

	lastSeen time.Time
}

func newWorkspace() *Workspace {
	return &Workspace{View: view.New(), Gate: session.NewGate()}
}

// EnsureBoard builds the marker board on first use once data is available
// and keeps its visibility in step with the gate.
func (ws *Workspace) EnsureBoard(ds marker.Dataset) *marker.Board {
	if ws.Board != nil {
		return ws.Board
	}
	b := marker.NewBoard(ds)
	b.SetVisible(ws.Gate.IsAuthenticated())
	ws.Gate.OnChange(b.SetVisible)
	ws.Board = b
	return b
}

// SyncUser aligns the gate with the username carried by the session token.
func (ws *Workspace) SyncUser(username string) {
	if username == "" {
		ws.Gate.SignOut()
		return
	}
	ws.Gate.SignIn(username)
}

type entry struct {
	mu sync.Mutex
	ws *Workspace
}

// Store keeps workspaces by session id. Work on one workspace is serialized;
// different sessions proceed independently.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	logger   *zap.Logger
	now      func() time.Time
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{sessions: make(map[string]*entry), logger: logger, now: time.Now}
}

// Do runs fn with exclusive access to the workspace of sid, creating it when absent.
func (s *Store) Do(sid string, fn func(ws *Workspace) error) error {
	e := s.entry(sid)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ws.lastSeen = s.now()
	return fn(e.ws)
}

// entry returns the entry of sid. A new entry counts as seen now, so a sweep
// between creation and first use cannot drop it.
func (s *Store) entry(sid string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sid]
	if !ok {
		ws := newWorkspace()
		ws.lastSeen = s.now()
		e = &entry{ws: ws}
		s.sessions[sid] = e
		s.logger.Debug("workspace created", zap.String("sid", sid))
	}
	return e
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops workspaces idle for longer than maxIdle and returns how many went.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sid, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		idle := e.ws.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(s.sessions, sid)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("swept idle workspaces", zap.Int("count", n))
	}
	return n
}
