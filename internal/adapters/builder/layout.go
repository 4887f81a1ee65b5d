// Package builder renders log events into syslog wire messages.
//
// A Layout turns an event into text; a MessageBuilder splits that text into
// entries and frames each entry as one RFC 5424 or RFC 3164 message.
package builder

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/bft-labs/syslogship/internal/domain"
)

// DefaultLayout renders only the event message.
const DefaultLayout = "{{.Message}}"

var layoutFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"field": func(e domain.LogEvent, key string) string { return e.Fields[key] },
}

// TemplateLayout renders events with a text/template executed against
// domain.LogEvent.
type TemplateLayout struct {
	text string
	tmpl *template.Template
}

// NewTemplateLayout parses text. An empty text selects DefaultLayout.
func NewTemplateLayout(text string) (*TemplateLayout, error) {
	if text == "" {
		text = DefaultLayout
	}
	tmpl, err := template.New("layout").Funcs(layoutFuncs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &TemplateLayout{text: text, tmpl: tmpl}, nil
}

// MustTemplateLayout is like NewTemplateLayout but panics on a parse error.
func MustTemplateLayout(text string) *TemplateLayout {
	l, err := NewTemplateLayout(text)
	if err != nil {
		panic(err)
	}
	return l
}

// Render implements ports.Layout.
func (l *TemplateLayout) Render(event domain.LogEvent) (string, error) {
	var sb strings.Builder
	if err := l.tmpl.Execute(&sb, event); err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return sb.String(), nil
}

// String returns the template source.
func (l *TemplateLayout) String() string {
	return l.text
}
