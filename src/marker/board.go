package marker

import (
	"errors"
	"fmt"

	"gourmet/src/types"
)

var (
	ErrNotAuthenticated = errors.New("login required")
	ErrUnknownShop      = errors.New("unknown shop")
	ErrNotOpen          = errors.New("popup is not open")
)

// Dataset is what the board needs from the dataset index.
type Dataset interface {
	Shops() []types.Shop
	Reviews(id types.ShopID) []types.Review
}

// Authenticator is consulted on every click, so a login after the markers
// were built takes effect immediately.
type Authenticator interface {
	IsAuthenticated() bool
}

type Marker struct {
	ShopID   types.ShopID   `json:"shop_id"`
	Title    string         `json:"title"`
	Position types.GeoPoint `json:"position"`
	Visible  bool           `json:"visible"`
}

// Viewport is the initial map camera.
type Viewport struct {
	Center  types.GeoPoint `json:"center"`
	Zoom    int            `json:"zoom"`
	MinZoom int            `json:"min_zoom"`
}

var DefaultViewport = Viewport{
	Center:  types.GeoPoint{Lat: 35.0, Lon: 134.0},
	Zoom:    7,
	MinZoom: 2,
}

// Board owns one session's markers and popups. Visibility is a single flag
// applied to every marker.
type Board struct {
	markers []Marker
	popups  map[types.ShopID]*Popup
	ctrl    Controller
	visible bool
}

// NewBoard builds one marker and one popup per shop. Markers start hidden.
func NewBoard(ds Dataset) *Board {
	shops := ds.Shops()
	b := &Board{
		markers: make([]Marker, 0, len(shops)),
		popups:  make(map[types.ShopID]*Popup, len(shops)),
	}
	for _, s := range shops {
		b.markers = append(b.markers, Marker{ShopID: s.ID, Title: s.Name, Position: s.Location})
		b.popups[s.ID] = NewPopup(BuildPopup(s, ds.Reviews(s.ID)))
	}
	return b
}

// SetVisible shows or hides all markers. Hiding also closes the open popup.
func (b *Board) SetVisible(visible bool) {
	b.visible = visible
	if !visible {
		b.ctrl.CloseCurrent()
	}
}

func (b *Board) Visible() bool { return b.visible }

// Markers returns the marker descriptors with the current visibility applied.
func (b *Board) Markers() []Marker {
	out := make([]Marker, len(b.markers))
	for i, m := range b.markers {
		m.Visible = b.visible
		out[i] = m
	}
	return out
}

// Click opens the popup of a marker if the user is logged in right now. The
// second result is the popup that had to be closed, if any.
func (b *Board) Click(id types.ShopID, auth Authenticator) (*Popup, *Popup, error) {
	if auth == nil || !auth.IsAuthenticated() {
		return nil, nil, ErrNotAuthenticated
	}
	p, ok := b.popups[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownShop, id)
	}
	closed := b.ctrl.Open(p)
	return p, closed, nil
}

// ShowReviews switches the open popup of shop id to its review panel.
func (b *Board) ShowReviews(id types.ShopID) (*Popup, error) {
	p, err := b.openPopup(id)
	if err != nil {
		return nil, err
	}
	p.ShowReviews()
	return p, nil
}

// Back switches the open popup of shop id back to its info panel.
func (b *Board) Back(id types.ShopID) (*Popup, error) {
	p, err := b.openPopup(id)
	if err != nil {
		return nil, err
	}
	p.Back()
	return p, nil
}

func (b *Board) openPopup(id types.ShopID) (*Popup, error) {
	p, ok := b.popups[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShop, id)
	}
	if b.ctrl.Current() != p {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, id)
	}
	return p, nil
}

// CloseCurrent handles the popup close button.
func (b *Board) CloseCurrent() *Popup { return b.ctrl.CloseCurrent() }

// Background handles a click on the bare map surface.
func (b *Board) Background() *Popup { return b.ctrl.CloseCurrent() }

func (b *Board) Current() *Popup { return b.ctrl.Current() }
