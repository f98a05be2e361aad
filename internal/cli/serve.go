package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/grhey0115/Tenant-Assessment/internal/auth"
	"github.com/grhey0115/Tenant-Assessment/internal/cache"
	"github.com/grhey0115/Tenant-Assessment/internal/logging"
	"github.com/grhey0115/Tenant-Assessment/internal/web"
)

const (
	recountInterval = time.Hour
	cleanupInterval = 6 * time.Hour
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the HTTP server for the intake form, the admin dashboard and the JSON API.

Configuration comes from TA_* environment variables. TA_ADMIN_EMAIL is
required. Set TA_REDIS_ADDR to cache the applicant list in Redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")

	return cmd
}

func runServe(ctx context.Context, port int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := auth.ConfigFromEnv()
	logging.Setup(cfg.DevMode)

	if cfg.AdminEmail == "" {
		return fmt.Errorf("TA_ADMIN_EMAIL is required")
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []web.Option
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		defer func() {
			if err := rc.Close(); err != nil {
				slog.Warn("closing redis", "error", err)
			}
		}()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			slog.Warn("redis unreachable, reads fall back to the database", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		opts = append(opts, web.WithCache(rc))
	}

	srv, err := web.NewServer(database, cfg, opts...)
	if err != nil {
		return err
	}

	go runEvery(ctx, recountInterval, func() {
		n, err := srv.Applicants().RecountDays(ctx)
		if err != nil {
			slog.Error("recounting days in stage", "error", err)
			return
		}
		slog.Debug("recounted days in stage", "rows", n)
	})
	go runEvery(ctx, cleanupInterval, func() {
		if err := srv.Sessions().Cleanup(); err != nil {
			slog.Error("cleaning up sessions", "error", err)
		}
		if err := srv.Tokens().Cleanup(); err != nil {
			slog.Error("cleaning up tokens", "error", err)
		}
	})

	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", port))
}

// runEvery calls fn now and then on every tick until ctx is done.
func runEvery(ctx context.Context, every time.Duration, fn func()) {
	fn()
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}
