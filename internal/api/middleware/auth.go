package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/ashudevin/caremind/internal/api/response"
	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/security"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	TokenKey    contextKey = "token"
)

// TokenInfo identifies the access token that authenticated the request
type TokenInfo struct {
	ID        string
	ExpiresAt time.Time
}

// RevocationChecker reports revoked token ids
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *security.JWTManager
	revoked    RevocationChecker
}

// NewAuthMiddleware creates a new auth middleware. revoked may be nil.
func NewAuthMiddleware(jwtManager *security.JWTManager, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, revoked: revoked}
}

// Authenticate validates the bearer token and resolves the caller identity
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(w, "invalid authorization header format")
			return
		}

		claims, err := m.jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				log.Warn().Err(err).Msg("Token revocation check failed")
			} else if revoked {
				response.Unauthorized(w, "token has been revoked")
				return
			}
		}

		ident := domain.Identity{
			UserID:   claims.UserID,
			Username: claims.Name,
			Email:    claims.Email,
		}
		tok := TokenInfo{ID: claims.ID}
		if claims.ExpiresAt != nil {
			tok.ExpiresAt = claims.ExpiresAt.Time
		}

		ctx := context.WithValue(r.Context(), IdentityKey, ident)
		ctx = context.WithValue(ctx, TokenKey, tok)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity gets the authenticated caller from context
func GetIdentity(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(IdentityKey).(domain.Identity)
	return ident, ok
}

// GetToken gets the access token details from context
func GetToken(ctx context.Context) (TokenInfo, bool) {
	tok, ok := ctx.Value(TokenKey).(TokenInfo)
	return tok, ok
}

// WithIdentity returns a context carrying ident
func WithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, ident)
}
