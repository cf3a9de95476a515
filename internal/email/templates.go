package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates
var templateFS embed.FS

const TemplatePasswordReset = "password_reset"

type template struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// Renderer renders the embedded email templates.
type Renderer struct {
	templates map[string]*template
}

// NewRenderer loads every template group under templates/. Each group holds
// html.tmpl and plaintext.tmpl.
func NewRenderer() (*Renderer, error) {
	groups, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read email templates directory: %w", err)
	}

	r := &Renderer{templates: make(map[string]*template)}
	for _, group := range groups {
		if !group.IsDir() {
			continue
		}
		path := "templates/" + group.Name()

		html, err := htmltemplate.ParseFS(templateFS, path+"/html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parsing %s html template: %w", group.Name(), err)
		}
		text, err := texttemplate.ParseFS(templateFS, path+"/plaintext.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parsing %s plaintext template: %w", group.Name(), err)
		}
		r.templates[group.Name()] = &template{html: html, text: text}
	}

	if len(r.templates) == 0 {
		return nil, fmt.Errorf("no email templates found")
	}
	return r, nil
}

// Render builds a Message for the named template.
func (r *Renderer) Render(name, to, subject string, data interface{}) (Message, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return Message{}, fmt.Errorf("template %s not found", name)
	}

	var html bytes.Buffer
	if err := tmpl.html.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to execute html template: %w", err)
	}
	var text bytes.Buffer
	if err := tmpl.text.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to execute plaintext template: %w", err)
	}

	return Message{To: to, Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
