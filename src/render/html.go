package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"gourmet/src/i18n"
	"gourmet/src/marker"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is the root value every template sees. T translates into the page language.
type Page struct {
	Lang string
	User string
	Data any

	msgs *i18n.Bundle
}

func (p Page) T(key string, args ...any) string {
	if p.msgs == nil {
		return key
	}
	return p.msgs.T(p.Lang, key, args...)
}

// ListModel backs the list page and its result fragment.
type ListModel struct {
	Status  string
	Ready   bool
	Areas   []string
	Results Results
}

type PopupModel struct {
	Content marker.PopupContent
	Panel   string
}

func NewPopupModel(p *marker.Popup) PopupModel {
	return PopupModel{Content: p.Content, Panel: p.Panel().String()}
}

// MapModel backs the map page. Notice is a message key shown once, e.g. after logout.
type MapModel struct {
	Status   string
	Viewport marker.Viewport
	Notice   string
}

type Message struct {
	Kind string
	Text string
}

type HTML struct {
	tmpl *template.Template
	msgs *i18n.Bundle
}

func NewHTML(msgs *i18n.Bundle) (*HTML, error) {
	tmpl, err := template.New("gourmet").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &HTML{tmpl: tmpl, msgs: msgs}, nil
}

// Render executes a named template into w. Output is buffered so a failing
// template never leaves half a fragment behind.
func (h *HTML) Render(w io.Writer, name, lang, user string, data any) error {
	var buf bytes.Buffer
	page := Page{Lang: lang, User: user, Data: data, msgs: h.msgs}
	if err := h.tmpl.ExecuteTemplate(&buf, name, page); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
