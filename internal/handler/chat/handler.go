package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talktotj/chat/backend/internal/model/chat"
	aiService "github.com/talktotj/chat/backend/internal/service/ai"
	"github.com/talktotj/chat/backend/pkg/utils"
)

const maxBodyBytes = 1 << 20

// Responder produces one assistant reply per user message.
type Responder interface {
	Reply(ctx context.Context, userMessage string) (string, error)
	ProviderName() string
}

// Handler is the stateless relay between the widget and the completion provider.
type Handler struct {
	responder Responder
}

// New creates the relay handler.
func New(responder Responder) *Handler {
	return &Handler{responder: responder}
}

// RegisterRoutes mounts the relay. Every method is routed here so that wrong
// verbs get the JSON error body instead of the router default.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.HandleFunc("/chat", h.handleChat)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		utils.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var payload chat.RelayRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "Message is required")
		return
	}

	reply, err := h.responder.Reply(r.Context(), payload.Message)
	if err != nil {
		h.respondProviderError(w, r, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chat.RelayResponse{Response: reply})
}

func (h *Handler) respondProviderError(w http.ResponseWriter, r *http.Request, err error) {
	provider := h.responder.ProviderName()
	log.Printf("[relay] provider=%s request=%s failed: %v", provider, middleware.GetReqID(r.Context()), err)

	details := err.Error()
	var perr *aiService.ProviderError
	if errors.As(err, &perr) {
		details = perr.Err.Error()
	}

	if errors.Is(err, aiService.ErrTimeout) {
		utils.RespondErrorDetails(w, http.StatusGatewayTimeout, provider+" API timeout", details)
		return
	}
	utils.RespondErrorDetails(w, http.StatusInternalServerError, provider+" API error", details)
}
