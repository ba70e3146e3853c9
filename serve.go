package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/aTrapDeer/portfolio-backend/internal/api"
	"github.com/aTrapDeer/portfolio-backend/internal/auth"
	"github.com/aTrapDeer/portfolio-backend/internal/config"
	"github.com/aTrapDeer/portfolio-backend/internal/db"
	"github.com/aTrapDeer/portfolio-backend/internal/metrics"
	"github.com/aTrapDeer/portfolio-backend/internal/ratelimit"
	"github.com/aTrapDeer/portfolio-backend/internal/revalidate"
	"github.com/aTrapDeer/portfolio-backend/internal/seed"
	"github.com/aTrapDeer/portfolio-backend/internal/storage"
	"github.com/aTrapDeer/portfolio-backend/internal/upload"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := openMigrated(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error("close database", "err", err)
		}
	}()

	store := storage.NewGorm(gdb, cfg.CacheTTL)
	if cfg.SeedOnStart {
		if _, err := seed.Run(ctx, store, log); err != nil {
			log.Error("seeding failed", "err", err)
		}
	}

	revocations, closeRevocations, err := newRevocations(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRevocations(); err != nil {
			log.Error("close redis", "err", err)
		}
	}()
	hash, err := passwordHash(cfg.Auth)
	if err != nil {
		return err
	}
	gate, err := auth.NewGate(auth.Config{
		PasswordHash: hash,
		Secret:       []byte(cfg.Auth.JWTSecret),
		TokenTTL:     cfg.Auth.TokenTTL,
		FailureDelay: cfg.Auth.FailureDelay,
		MaxAttempts:  cfg.Auth.MaxAttempts,
		Window:       cfg.Auth.Window,
	}, revocations)
	if err != nil {
		return err
	}

	uploader, uploadDir, err := newUploader(ctx, cfg)
	if err != nil {
		return err
	}

	metrics.Register()

	srv := api.New(api.Options{
		Store:          store,
		Gate:           gate,
		MessageLimiter: ratelimit.PerHour(cfg.MessageRatePerHour),
		Uploader:       uploader,
		UploadDir:      uploadDir,
		UploadMaxBytes: cfg.Upload.MaxBytes,
		Notifier:       revalidate.New(cfg.RevalidationURL, cfg.RevalidationSecret, log),
		Health:         func(ctx context.Context) db.HealthReport { return db.Health(ctx, gdb) },
		Log:            log,
		Origins:        cfg.AllowedOrigins(),
		TrustProxy:     cfg.TrustProxy,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})

	if len(cfg.AllowedOrigins()) == 0 {
		log.Warn("FRONTEND_URL is not set, cross-origin requests will be refused")
	}

	if cfg.Database.Engine == config.EngineSQLite && cfg.Backup.Interval > 0 {
		backupsDone := newSnapshotter(gdb, cfg, log).Start(ctx, cfg.Backup.Interval)
		// registered after db.Close, so it runs first
		defer func() {
			stop()
			<-backupsDone
		}()
		log.Info("scheduled database backups", "interval", cfg.Backup.Interval, "keep", cfg.Backup.Retention)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("portfolio backend listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// passwordHash prefers the stored bcrypt hash and falls back to hashing the
// plaintext password once at startup.
func passwordHash(cfg config.Auth) ([]byte, error) {
	if cfg.AdminPasswordHash != "" {
		return []byte(cfg.AdminPasswordHash), nil
	}
	return auth.HashPassword(cfg.AdminPassword)
}

// newRevocations picks the revocation store. The returned close func releases
// the Redis connection pool.
func newRevocations(ctx context.Context, cfg config.Redis, log *slog.Logger) (auth.Revocations, func() error, error) {
	if cfg.Addr == "" {
		log.Info("token revocations kept in memory")
		return auth.NewMemoryRevocations(), func() error { return nil }, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	log.Info("token revocations kept in redis", "addr", cfg.Addr)
	return auth.NewRedisRevocations(rdb), rdb.Close, nil
}

// newUploader returns MinIO when configured, otherwise a local directory that
// the API serves itself. The returned dir is empty for MinIO.
func newUploader(ctx context.Context, cfg config.Config) (upload.Backend, string, error) {
	u := cfg.Upload
	if u.MinIOEndpoint != "" {
		m, err := upload.NewMinIO(ctx, upload.MinIOConfig{
			Endpoint:        u.MinIOEndpoint,
			AccessKeyID:     u.MinIOAccessKey,
			SecretAccessKey: u.MinIOSecretKey,
			UseSSL:          u.MinIOUseSSL,
			Bucket:          u.MinIOBucket,
		})
		if err != nil {
			return nil, "", err
		}
		return m, "", nil
	}
	dir := filepath.Join(cfg.Database.DataDir, "uploads")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create upload dir: %w", err)
	}
	prefix := strings.TrimRight(u.PublicBaseURL, "/") + "/uploads"
	return &upload.Local{Dir: dir, URLPrefix: prefix}, dir, nil
}
