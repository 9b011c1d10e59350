package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/flowersdz/gallery-admin/internal/config"
	"github.com/flowersdz/gallery-admin/internal/domain/admin"
	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/domain/media"
	"github.com/flowersdz/gallery-admin/internal/domain/relay"
	"github.com/flowersdz/gallery-admin/internal/middleware"
	"github.com/flowersdz/gallery-admin/internal/pkg/database"
	"github.com/flowersdz/gallery-admin/internal/pkg/firebase"
	"github.com/flowersdz/gallery-admin/internal/pkg/imagekit"
	"github.com/flowersdz/gallery-admin/internal/pkg/jwt"
	"github.com/flowersdz/gallery-admin/internal/pkg/logger"
	pkgresponse "github.com/flowersdz/gallery-admin/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("media_backend", cfg.MediaBackend).
		Msg("Starting gallery admin")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	// ---------- Record store ----------
	var store media.Store
	if db != nil {
		pgStore := media.NewPostgresStore(db, media.NewFeed(redis))
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare media schema")
		}
		go pgStore.Run(ctx)
		store = pgStore
	} else {
		log.Warn().Msg("DATABASE_URL not set, media records are kept in memory")
		store = media.NewMemoryStore()
	}

	// ---------- Sessions & identity ----------
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)
	sessions := auth.NewSessions(jwtService, auth.NewRevocations(redis))

	var provider auth.Provider
	if cfg.UsesFirebaseAuth() {
		provider = auth.NewFirebaseProvider(firebase.NewClient(cfg.Firebase.APIKey, "", cfg.HTTPClientTimeout))
	} else {
		log.Warn().Msg("FIREBASE_API_KEY not set, using the local operator account")
		provider = auth.NewLocalProvider(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminUID)
	}

	// ---------- Media API ----------
	imageKit := imagekit.NewClient(imagekit.Config{
		PublicKey:   cfg.ImageKitPublicKey,
		PrivateKey:  cfg.ImageKitPrivateKey,
		URLEndpoint: cfg.ImageKitURLEndpoint,
		UploadURL:   cfg.ImageKitUploadURL,
		APIURL:      cfg.ImageKitAPIURL,
		Timeout:     cfg.HTTPClientTimeout,
	})

	backend, err := newMediaBackend(ctx, cfg, imageKit)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media backend")
	}

	// ---------- WebSocket hub ----------
	hub := admin.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()

	app := &admin.App{
		Store:        store,
		Uploader:     backend.uploader,
		Deleter:      backend.deleter,
		Thumbnail:    backend.thumbnail,
		Provider:     provider,
		Sessions:     sessions,
		Folder:       cfg.MediaFolder,
		Tag:          cfg.MediaTag,
		Concurrency:  cfg.UploadConcurrency,
		MaxFileBytes: cfg.UploadMaxBytes,
	}

	authHandler := auth.NewHandler(provider, sessions, "/")
	adminHandler := admin.NewHandler(app, hub, cfg.AllowedOrigins)
	relayHandler := relay.NewHandler(relay.NewService(imageKit, backend.deleter))

	authMiddleware := middleware.Auth(jwtService, sessions)
	optionalAuth := middleware.OptionalAuth(jwtService, sessions)

	relayMiddleware, err := relayMiddlewares(cfg, authMiddleware)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid relay configuration")
	}

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket outside of Compress so the connection can be hijacked
	r.With(optionalAuth).Get("/ws", adminHandler.WebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"status": "ok"})
		})

		r.Get("/api/client-config", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.Raw(w, http.StatusOK, cfg.Client())
		})

		r.Mount("/.netlify/functions", relayHandler.Routes(relayMiddleware...))

		r.Route("/api", func(r chi.Router) {
			r.Mount("/auth", authHandler.Routes(authMiddleware))
			r.Get("/media", adminHandler.Gallery)
			r.Mount("/admin", adminHandler.Routes(authMiddleware))
		})

		if backend.files != nil {
			r.Mount("/media", backend.files)
		}
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      cfg.HTTPClientTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// relayMiddlewares returns the guards for the relay endpoints: a per-IP rate limit
// and, when configured, a session check.
func relayMiddlewares(cfg *config.Config, authMiddleware func(http.Handler) http.Handler) ([]func(http.Handler) http.Handler, error) {
	var mws []func(http.Handler) http.Handler
	if cfg.RelayRateLimit != "" {
		limit, err := middleware.RateLimit(cfg.RelayRateLimit)
		if err != nil {
			return nil, err
		}
		mws = append(mws, limit)
	}
	if cfg.RelayRequireAuth {
		mws = append(mws, authMiddleware)
	} else {
		log.Warn().Msg("Relay endpoints accept unauthenticated callers (RELAY_REQUIRE_AUTH=false)")
	}
	return mws, nil
}
