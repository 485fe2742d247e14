package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/devapi"
)

type Config struct {
	HTTPPort        string
	DBPath          string
	JWTSecret       string
	TokenTTL        time.Duration
	UserEmail       string
	UserPassword    string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		log.Fatalf("invalid TOKEN_TTL: %v", err)
	}
	return &Config{
		HTTPPort:        getEnv("DEVAPI_PORT", "3000"),
		DBPath:          getEnv("DB_PATH", "./data/catalog.db"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:        ttl,
		UserEmail:       getEnv("DEVAPI_USER_EMAIL", "demo@example.com"),
		UserPassword:    getEnv("DEVAPI_USER_PASSWORD", "password"),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
	}

	repo, err := catalog.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	tokens, err := devapi.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		log.Fatalf("Failed to configure tokens: %v", err)
	}

	server, err := devapi.NewServer(repo, tokens, map[string]string{cfg.UserEmail: cfg.UserPassword})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	r := chi.NewRouter()
	r.Mount("/api", server.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Dev API starting on :%s (user %s)", cfg.HTTPPort, cfg.UserEmail)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
