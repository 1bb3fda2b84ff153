// Package marker assembles map markers and their two-panel popups, and keeps
// track of the single open popup.
package marker

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"gourmet/src/format"
	"gourmet/src/types"
)

type Panel int

const (
	PanelInfo Panel = iota
	PanelReview
)

func (p Panel) String() string {
	if p == PanelReview {
		return "review"
	}
	return "info"
}

type InfoPanel struct {
	Name        string
	Rating      string
	Rated       bool
	Stars       Stars
	Address     []string
	Phone       string
	Category    string
	Price       string
	Hours       []string
	ReviewCount int
	Image       string
}

type ReviewEntry struct {
	Author    string
	UpdatedAt string
	Score     string
	Scored    bool
	Comment   template.HTML
	Recommend string
}

type ReviewPanel struct {
	ShopName string
	Count    int
	Reviews  []ReviewEntry
}

type PopupContent struct {
	ShopID types.ShopID
	Info   InfoPanel
	Review ReviewPanel
}

// commentPolicy admits only the line breaks commentHTML inserts.
var commentPolicy = bluemonday.NewPolicy().AllowElements("br")

// commentHTML renders free text with its line breaks kept. Every line is
// escaped before the breaks are joined in, so the text shows exactly as written.
func commentHTML(s string) template.HTML {
	lines := format.Lines(s)
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return template.HTML(commentPolicy.Sanitize(strings.Join(lines, "<br>")))
}

// ImagePath is where a shop's photo lives by convention.
func ImagePath(id types.ShopID) string {
	return "/images/" + string(id) + ".jpg"
}

// BuildPopup maps a shop and its reviews to the content of both panels.
func BuildPopup(shop types.Shop, reviews []types.Review) PopupContent {
	rating, rated := format.Score(shop.Rating)
	content := PopupContent{
		ShopID: shop.ID,
		Info: InfoPanel{
			Name:        shop.Name,
			Rating:      rating,
			Rated:       rated,
			Stars:       StarRating(shop.Rating),
			Address:     format.Lines(shop.Address),
			Phone:       shop.Phone,
			Category:    shop.Category,
			Price:       shop.Price,
			Hours:       format.Lines(shop.Hours),
			ReviewCount: len(reviews),
			Image:       ImagePath(shop.ID),
		},
		Review: ReviewPanel{
			ShopName: shop.Name,
			Count:    len(reviews),
			Reviews:  make([]ReviewEntry, 0, len(reviews)),
		},
	}
	for _, r := range reviews {
		score, scored := format.Score(r.Score)
		content.Review.Reviews = append(content.Review.Reviews, ReviewEntry{
			Author:    r.Author,
			UpdatedAt: r.UpdatedAt,
			Score:     score,
			Scored:    scored,
			Comment:   commentHTML(r.Comment),
			Recommend: r.Recommend,
		})
	}
	return content
}

// Popup is one marker's popup. Exactly one panel is visible; opening always
// starts on the info panel.
type Popup struct {
	Content PopupContent
	panel   Panel
	open    bool
}

func NewPopup(content PopupContent) *Popup {
	return &Popup{Content: content}
}

func (p *Popup) Panel() Panel { return p.panel }

func (p *Popup) IsOpen() bool { return p.open }

// ShowReviews swaps the info panel for the review panel.
func (p *Popup) ShowReviews() { p.panel = PanelReview }

// Back swaps the review panel for the info panel.
func (p *Popup) Back() { p.panel = PanelInfo }

func (p *Popup) enter() {
	p.open = true
	p.panel = PanelInfo
}

func (p *Popup) exit() {
	p.open = false
	p.panel = PanelInfo
}

// Controller tracks the one open popup.
type Controller struct {
	current *Popup
}

// Open closes whatever is open and opens p. It returns the popup it closed,
// nil when nothing else was open.
func (c *Controller) Open(p *Popup) *Popup {
	var closed *Popup
	if c.current != nil && c.current != p {
		closed = c.CloseCurrent()
	}
	p.enter()
	c.current = p
	return closed
}

// CloseCurrent is the single close path: a new popup opening, the close
// button and a click on the map background all end here.
func (c *Controller) CloseCurrent() *Popup {
	p := c.current
	if p == nil {
		return nil
	}
	p.exit()
	c.current = nil
	return p
}

func (c *Controller) Current() *Popup { return c.current }
