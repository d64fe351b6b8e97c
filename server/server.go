package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"musiclib/cache"
	"musiclib/config"
	"musiclib/core/auth"
	"musiclib/core/events"
	"musiclib/core/tracks"
	"musiclib/db"
	"musiclib/logger"
	"musiclib/storage"
)

// Start opens the database and the optional Redis and MinIO backends, then
// serves HTTP until SIGINT or SIGTERM.
func Start(cfg *config.Config) error {
	if cfg.InsecureJWTSecret() {
		logger.Warn("JWT_SECRET is unset or uses the built-in default; set a private secret before exposing the server")
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Redis 仅用于登出黑名单
	var revoker auth.Revoker
	if cfg.RedisEnabled {
		client, err := cache.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		revoker = cache.NewTokenBlacklist(client)
		logger.Info("Redis token blacklist enabled")
	}

	// MinIO 用于封面上传
	var artwork tracks.ArtworkStore
	if cfg.MinioEnabled {
		store, err := storage.NewArtworkStore(ctx, cfg)
		if err != nil {
			return err
		}
		artwork = store
		logger.Info("MinIO artwork store enabled", logger.String("bucket", cfg.MinioBucket))
	}

	hub := events.NewHub()
	go hub.Run()
	defer hub.Stop()

	apiHandler := NewAPIHandler(gdb, cfg, revoker, artwork, hub)

	// 设置服务器超时
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      NewRouter(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
