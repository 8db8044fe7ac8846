package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messenger/internal/api"
	"messenger/internal/auth"
	"messenger/internal/chat"
	"messenger/internal/config"
	"messenger/internal/media"
	"messenger/internal/sentry"
	"messenger/internal/storage"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 1. Resolve configuration (.env + environment + optional yaml)
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	env := "production"
	if cfg.Debug {
		env = "dev"
	}
	if err := sentry.Init(cfg.SentryDSN, env); err != nil {
		log.Fatalf("Failed to initialize sentry: %v", err)
	}

	// 2. Initialize database
	store, err := storage.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// 3. Media storage (encrypted at rest when a key is configured)
	mediaSvc, err := media.NewService(cfg.MediaDir, cfg.MediaEncKey)
	if err != nil {
		log.Fatalf("Failed to initialize media storage: %v", err)
	}
	if !mediaSvc.Encrypted() {
		log.Println("WARNING: MEDIA_ENC_KEY not set, media will be stored in plaintext")
	}

	// 4. Tokens and the realtime relay. The registry is constructed here and
	// injected; it lives for the whole process.
	tokens := auth.NewTokenManager(cfg.SecretKey, time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	registry := chat.NewRegistry()
	relay := chat.NewRelay(registry, tokens)

	// 5. HTTP engine
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.SentryDSN != "" {
		r.Use(sentry.Middleware())
	}

	api.New(store, tokens, relay, mediaSvc).Register(r)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("%s listening on %s", cfg.AppName, cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	// Wait for interrupt or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErrors:
		log.Printf("Server error: %v, initiating shutdown...", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
