package session

// Gate holds the signed-in user of one session and notifies listeners
// whenever the authenticated state is re-evaluated.
type Gate struct {
	user      string
	listeners []func(authenticated bool)
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) IsAuthenticated() bool {
	return g.user != ""
}

func (g *Gate) User() string {
	return g.user
}

// OnChange registers fn to run after every sign-in or sign-out.
func (g *Gate) OnChange(fn func(authenticated bool)) {
	g.listeners = append(g.listeners, fn)
}

func (g *Gate) SignIn(username string) {
	if username == "" {
		g.SignOut()
		return
	}
	if g.user == username {
		return
	}
	g.user = username
	g.notify()
}

func (g *Gate) SignOut() {
	if g.user == "" {
		return
	}
	g.user = ""
	g.notify()
}

func (g *Gate) notify() {
	for _, fn := range g.listeners {
		fn(g.IsAuthenticated())
	}
}
