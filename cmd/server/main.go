package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ashudevin/caremind/internal/api"
	"github.com/ashudevin/caremind/internal/config"
	"github.com/ashudevin/caremind/internal/logger"
	"github.com/ashudevin/caremind/internal/repository/memory"
	"github.com/ashudevin/caremind/internal/repository/mongo"
	"github.com/ashudevin/caremind/internal/repository/postgres"
	"github.com/ashudevin/caremind/internal/repository/redis"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCloser, err := logger.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Msg("Starting CareMind API server")

	ctx := context.Background()

	deps, closeStore, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer closeStore()

	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		deps.Redis = redisClient
	} else {
		log.Warn().Msg("Redis disabled, rate limiting and token revocation are off")
	}

	router := api.NewRouter(cfg, deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// openStorage connects the configured session and user store
func openStorage(ctx context.Context, cfg *config.Config) (api.Deps, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		db, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return api.Deps{}, nil, fmt.Errorf("mongo: %w", err)
		}
		closeFn := func() {
			if err := db.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("Failed to disconnect MongoDB")
			}
		}
		return api.Deps{Sessions: db.Sessions(), Users: db.Users(), Store: db}, closeFn, nil

	case config.DriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
				return api.Deps{}, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return api.Deps{}, nil, fmt.Errorf("postgres: %w", err)
		}
		return api.Deps{Sessions: db.Sessions(), Users: db.Users(), Store: db}, db.Close, nil

	default:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		sessions := memory.NewSessionRepository()
		return api.Deps{Sessions: sessions, Users: memory.NewUserRepository(), Store: sessions}, func() {}, nil
	}
}
