package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Load reads the embedded dictionaries for the supported languages. The
// fallback language must be among them.
func Load(fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"ja", "en"}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	// the matcher falls back to its first tag, so the fallback goes first
	ordered := []string{fallback}
	for _, l := range supported {
		if l != fallback {
			ordered = append(ordered, l)
		}
	}
	tags := make([]language.Tag, 0, len(ordered))
	for _, l := range ordered {
		raw, err := localeFS.ReadFile(path.Join("locales", l+".json"))
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
		b.supported = append(b.supported, l)
		tags = append(tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// MustLoad is Load for package-level setup and tests.
func MustLoad(fallback string, supported ...string) *Bundle {
	b, err := Load(fallback, supported)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bundle) Supported() []string {
	out := make([]string, len(b.supported))
	copy(out, b.supported)
	return out
}

func (b *Bundle) Fallback() string { return b.fallback }

// T returns the translation of key in lang, falling back to the default
// language and finally to the key itself. Args are applied with fmt.Sprintf.
func (b *Bundle) T(lang, key string, args ...any) string {
	msg, ok := b.lookup(lang, key)
	if !ok {
		msg, ok = b.lookup(b.fallback, key)
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func (b *Bundle) lookup(lang, key string) (string, bool) {
	m, ok := b.dict[lang]
	if !ok {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

// Resolve picks the best supported language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	if strings.TrimSpace(acceptLang) == "" {
		return b.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(b.supported) {
		return b.fallback
	}
	return b.supported[idx]
}
