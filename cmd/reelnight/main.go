package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tobinmarsh/reelnight/internal/backup"
	"github.com/tobinmarsh/reelnight/internal/database"
	"github.com/tobinmarsh/reelnight/internal/logging"
	"github.com/tobinmarsh/reelnight/internal/server"
)

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(os.Getenv("REELNIGHT_LOG_LEVEL"))

	port := env("REELNIGHT_PORT", "8080")
	dbPath := env("REELNIGHT_DB_PATH", "reelnight.db")

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		BaseURL:         env("REELNIGHT_BASE_URL", "http://localhost:"+port),
		PostmarkToken:   os.Getenv("REELNIGHT_POSTMARK_TOKEN"),
		FromEmail:       env("REELNIGHT_FROM_EMAIL", "noreply@reelnight.app"),
		OMDBAPIKey:      os.Getenv("REELNIGHT_OMDB_API_KEY"),
		VAPIDPublicKey:  os.Getenv("REELNIGHT_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("REELNIGHT_VAPID_PRIVATE_KEY"),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("REELNIGHT_S3_ENDPOINT"),
				Bucket:    os.Getenv("REELNIGHT_S3_BUCKET"),
				Region:    env("REELNIGHT_S3_REGION", "us-east-1"),
				AccessKey: os.Getenv("REELNIGHT_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("REELNIGHT_S3_SECRET_KEY"),
			},
			DBPath:     dbPath,
			Passphrase: os.Getenv("REELNIGHT_BACKUP_PASSPHRASE"),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv.BackupManager().Start(ctx)
	defer srv.BackupManager().Stop()

	// Janitor: expired sessions and stale rate-limit windows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("delete expired sessions", "error", err)
				} else if n > 0 {
					logger.Info("deleted expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("reelnight listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
