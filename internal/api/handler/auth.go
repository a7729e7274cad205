package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/ashudevin/caremind/internal/api/middleware"
	"github.com/ashudevin/caremind/internal/api/response"
	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/service"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService    *service.AuthService
	sessionService *service.SessionService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, sessionService *service.SessionService) *AuthHandler {
	return &AuthHandler{authService: authService, sessionService: sessionService}
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	user, err := h.authService.Signup(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			response.BadRequest(w, "Email already registered")
			return
		}
		log.Error().Err(err).Msg("Signup failed")
		response.InternalError(w, "failed to create account")
		return
	}

	response.Created(w, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Login accepts either a JSON body or an OAuth2 password form whose
// username field carries the email
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			response.BadRequest(w, "invalid form body")
			return
		}
		input.Email = r.PostFormValue("username")
		if input.Email == "" {
			input.Email = r.PostFormValue("email")
		}
		input.Password = r.PostFormValue("password")
	default:
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid credentials")
			return
		}
		log.Error().Err(err).Msg("Login failed")
		response.InternalError(w, "failed to log in")
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessage(err))
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			response.Unauthorized(w, "invalid refresh token")
			return
		}
		response.InternalError(w, "failed to refresh token")
		return
	}

	response.OK(w, tokens)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			response.Unauthorized(w, "user not found")
			return
		}
		response.InternalError(w, "failed to load user")
		return
	}

	response.OK(w, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Logout clears the chat state and revokes the presented access token
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.sessionService.Logout(r.Context(), ident); err != nil {
		log.Error().Err(err).Str("user_id", ident.UserID.String()).Msg("Logout failed")
		response.InternalError(w, "failed to clear chat state")
		return
	}

	if tok, ok := middleware.GetToken(r.Context()); ok {
		if err := h.authService.Revoke(r.Context(), tok.ID, tok.ExpiresAt); err != nil {
			log.Warn().Err(err).Msg("Token revocation failed")
		}
	}

	response.OK(w, map[string]string{
		"message": "Logged out successfully, chat state cleared",
	})
}
