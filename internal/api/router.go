package api

import (
	"net/http"

	"github.com/ashudevin/caremind/internal/api/handler"
	customMiddleware "github.com/ashudevin/caremind/internal/api/middleware"
	"github.com/ashudevin/caremind/internal/config"
	"github.com/ashudevin/caremind/internal/conversation"
	"github.com/ashudevin/caremind/internal/domain"
	"github.com/ashudevin/caremind/internal/llm"
	"github.com/ashudevin/caremind/internal/llm/anthropic"
	"github.com/ashudevin/caremind/internal/llm/gemini"
	"github.com/ashudevin/caremind/internal/llm/ollama"
	"github.com/ashudevin/caremind/internal/llm/openai"
	"github.com/ashudevin/caremind/internal/repository/redis"
	"github.com/ashudevin/caremind/internal/security"
	"github.com/ashudevin/caremind/internal/sentiment"
	"github.com/ashudevin/caremind/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Deps are the backing services the router is built on
type Deps struct {
	Sessions domain.SessionRepository
	Users    domain.UserRepository
	// Store is pinged by the readiness probe
	Store handler.Pinger
	// LLM is built from configuration when nil
	LLM *llm.Router
	// Redis enables rate limiting and token revocation; may be nil
	Redis *redis.Client
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	origins := cfg.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	llmRouter := deps.LLM
	if llmRouter == nil {
		llmRouter = newLLMRouter(cfg.LLM)
	}

	// Redis-backed pieces are optional
	var (
		denylist    service.TokenDenylist
		revoked     customMiddleware.RevocationChecker
		rateLimiter *customMiddleware.RateLimitMiddleware
	)
	if deps.Redis != nil {
		tokens := redis.NewTokenDenylist(deps.Redis)
		denylist = tokens
		revoked = tokens
		rateLimiter = customMiddleware.NewRateLimitMiddleware(redis.NewRateLimiter(
			deps.Redis,
			cfg.Security.RateLimit.RequestsPerMinute,
			cfg.Security.RateLimit.Burst,
		))
	}

	// Initialize services
	machine := conversation.NewMachine(sentiment.NewAnalyzer(), llmRouter)
	sessionService := service.NewSessionService(deps.Sessions)
	chatService := service.NewChatService(sessionService, deps.Sessions, machine, cfg.LLM.Timeout)
	authService := service.NewAuthService(deps.Users, jwtManager, denylist)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, sessionService)
	chatHandler := handler.NewChatHandler(chatService, sessionService, security.NewMessageSanitizer())

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager, revoked)

	ready := map[string]handler.Pinger{}
	if deps.Store != nil {
		ready["storage"] = deps.Store
	}
	if deps.Redis != nil {
		ready["redis"] = deps.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(ready))
		r.Get("/llm-providers", handler.ListLLMProviders(llmRouter))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			if rateLimiter != nil {
				r.Use(rateLimiter.Limit)
			}

			r.Get("/me", authHandler.Me)
			r.Post("/auth/logout", authHandler.Logout)

			r.Route("/chat", func(r chi.Router) {
				r.Post("/", chatHandler.Chat)
				r.Post("/reset-on-login", chatHandler.ResetOnLogin)
				r.Post("/reset", chatHandler.Reset)
			})
		})
	})

	return r
}

func newLLMRouter(cfg config.LLMConfig) *llm.Router {
	router := llm.NewRouter(cfg.DefaultProvider)

	log.Info().Str("default", cfg.DefaultProvider).Msg("Initializing LLM providers")

	if cfg.Gemini.APIKey != "" {
		router.RegisterProvider(gemini.NewProvider(cfg.Gemini))
	} else {
		log.Warn().Msg("Gemini API key is empty, skipping registration")
	}
	if cfg.OpenAI.APIKey != "" {
		router.RegisterProvider(openai.NewProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL))
	}
	if cfg.Anthropic.APIKey != "" {
		router.RegisterProvider(anthropic.NewProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, cfg.Anthropic.BaseURL))
	}
	if cfg.Ollama.Host != "" {
		log.Info().Str("host", cfg.Ollama.Host).Msg("Registering Ollama provider")
		router.RegisterProvider(ollama.NewProvider(cfg.Ollama.Host, cfg.Ollama.DefaultModel))
	}

	return router
}
