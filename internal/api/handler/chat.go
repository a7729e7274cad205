package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ashudevin/caremind/internal/api/middleware"
	"github.com/ashudevin/caremind/internal/api/response"
	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/security"
	"github.com/ashudevin/caremind/internal/service"
	"github.com/rs/zerolog/log"
)

// Replies used when a turn could not complete
const (
	retryGenerationMessage = "I'm having trouble responding right now. Please send your message again in a moment."
	retryConflictMessage   = "Your previous message is still being processed. Please try again."
)

// ChatHandler handles conversation endpoints
type ChatHandler struct {
	chatService    *service.ChatService
	sessionService *service.SessionService
	sanitizer      *security.MessageSanitizer
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	chatService *service.ChatService,
	sessionService *service.SessionService,
	sanitizer *security.MessageSanitizer,
) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		sessionService: sessionService,
		sanitizer:      sanitizer,
	}
}

type chatRequest struct {
	Message *string `json:"message"`
}

// Chat runs one conversation turn. An empty body or missing message asks
// for the greeting.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input chatRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}

	if input.Message != nil {
		cleaned, err := h.sanitizer.Sanitize(*input.Message)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		input.Message = &cleaned
	}

	reply, err := h.chatService.HandleTurn(r.Context(), ident, input.Message)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionConflict):
			response.Conflict(w, retryConflictMessage)
		case errors.Is(err, domain.ErrGeneration):
			response.BadGateway(w, retryGenerationMessage)
		default:
			log.Error().Err(err).Str("user_id", ident.UserID.String()).Msg("Chat turn aborted")
			response.InternalError(w, "failed to process message")
		}
		return
	}

	response.OK(w, map[string]string{"message": reply})
}

// ResetOnLogin re-arms the greeting after a fresh login
func (h *ChatHandler) ResetOnLogin(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	returning, err := h.sessionService.ResetOnLogin(r.Context(), ident)
	if err != nil {
		log.Error().Err(err).Str("user_id", ident.UserID.String()).Msg("Reset on login failed")
		response.InternalError(w, "failed to reset chat state")
		return
	}

	response.OK(w, map[string]any{
		"message":      "Chat state reset to greeting",
		"is_returning": returning,
	})
}

// Reset deletes the conversation and starts a new one
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.sessionService.Reset(r.Context(), ident); err != nil {
		log.Error().Err(err).Str("user_id", ident.UserID.String()).Msg("Chat reset failed")
		response.InternalError(w, "failed to reset chat")
		return
	}

	response.OK(w, map[string]string{
		"message": "Chat history deleted and new session started",
	})
}
