package web

import (
	"bytes"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/talktotj/chat/backend/internal/client"
	"github.com/talktotj/chat/backend/internal/model/persona"
)

//go:embed templates/index.html
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type pageData struct {
	Name        string
	OpeningLine string
	Placeholder string
	ChatPath    string
}

// Handler serves the chat widget page for the active persona.
type Handler struct {
	page []byte
}

// New renders the page once; the persona does not change while the process runs.
func New(p persona.Persona) (*Handler, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, pageData{
		Name:        p.Name,
		OpeningLine: p.OpeningLine,
		Placeholder: p.DisplayPlaceholder(),
		ChatPath:    client.ChatPath,
	})
	if err != nil {
		return nil, err
	}
	return &Handler{page: buf.Bytes()}, nil
}

// RegisterRoutes mounts the widget page.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.page); err != nil {
		log.Printf("[web] failed to write page: %v", err)
	}
}
