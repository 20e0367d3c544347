package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"popfitup-backend/internal/config"
	"popfitup-backend/internal/infrastructure/database"
	"popfitup-backend/internal/interfaces/router"
	"popfitup-backend/internal/pkg/logger"
)

type serveOptions struct {
	port        string
	sqlitePath  string
	memoryRedis bool
	migrate     bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Connect to the database and Redis, then serve the HTTP API until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.port, "port", "", "port to listen on (default: PORT)")
	cmd.Flags().StringVar(&opts.sqlitePath, "sqlite", "", "use a SQLite file instead of DATABASE_URL")
	cmd.Flags().BoolVar(&opts.memoryRedis, "memory-redis", false, "run an in-process Redis (development only)")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "run migrations before serving")

	return cmd
}

// loadConfig loads config, applies the --sqlite override and sets up logging.
func loadConfig(sqlitePath string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if sqlitePath != "" {
		cfg.SQLitePath = sqlitePath
	}
	logger.Setup(cfg.Env)
	return cfg, nil
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig(opts.sqlitePath)
	if err != nil {
		return err
	}
	if opts.port != "" {
		cfg.Port = opts.port
	}

	if opts.memoryRedis || (cfg.RedisURL == "" && !cfg.IsProduction()) {
		if cfg.IsProduction() {
			return fmt.Errorf("--memory-redis is not allowed in production")
		}
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start in-process redis: %w", err)
		}
		defer mr.Close()
		cfg.RedisURL = "redis://" + mr.Addr()
		log.Warn().Str("addr", mr.Addr()).Msg("using in-process redis; sessions are lost on restart")
	}

	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		return fmt.Errorf("app create: %w", err)
	}
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Info().Msg("database connected")
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Msg("redis connected")

	if opts.migrate || cfg.SQLitePath != "" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("url", "http://localhost:"+cfg.Port).
			Str("health", "http://localhost:"+cfg.Port+"/health/json").
			Msg("server running")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return app.ShutdownWithContext(shutdownCtx)
}
