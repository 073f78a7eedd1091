package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"commerce-service/internal/notification"
)

//go:embed templates/*.html
var templateFS embed.FS

type Rendered struct {
	Subject string
	HTML    string
}

// Renderer holds one parsed template set per notification kind.
type Renderer struct {
	sets map[notification.Kind]*template.Template
}

func NewRenderer() (*Renderer, error) {
	kinds := []notification.Kind{
		notification.KindOrderConfirmation,
		notification.KindOrderStatusUpdate,
		notification.KindPasswordReset,
		notification.KindWelcome,
	}

	r := &Renderer{sets: make(map[notification.Kind]*template.Template, len(kinds))}
	for _, kind := range kinds {
		tmpl, err := template.New(string(kind)).
			Option("missingkey=zero").
			ParseFS(templateFS, "templates/"+string(kind)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", kind, err)
		}
		r.sets[kind] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(msg notification.Message) (*Rendered, error) {
	tmpl, ok := r.sets[msg.Kind]
	if !ok {
		return nil, fmt.Errorf("no template for %q", msg.Kind)
	}

	var subject, body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", msg.Data); err != nil {
		return nil, fmt.Errorf("render %s subject: %w", msg.Kind, err)
	}
	if err := tmpl.ExecuteTemplate(&body, "body", msg.Data); err != nil {
		return nil, fmt.Errorf("render %s body: %w", msg.Kind, err)
	}

	return &Rendered{
		Subject: strings.TrimSpace(subject.String()),
		HTML:    body.String(),
	}, nil
}
