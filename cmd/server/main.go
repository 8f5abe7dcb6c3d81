package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tessera-chat/tessera/internal/api"
	"github.com/tessera-chat/tessera/internal/config"
	"github.com/tessera-chat/tessera/internal/events"
	"github.com/tessera-chat/tessera/internal/media"
	"github.com/tessera-chat/tessera/internal/notify"
	"github.com/tessera-chat/tessera/internal/observ"
	"github.com/tessera-chat/tessera/internal/persistence"
	"github.com/tessera-chat/tessera/internal/scheduler"
	"github.com/tessera-chat/tessera/internal/service"
	"github.com/tessera-chat/tessera/internal/session"
	"github.com/tessera-chat/tessera/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ---------------------------------------------------------------
	// Store + persistence: load the latest snapshot if one exists, so
	// a restart picks up where the last run stopped.
	// ---------------------------------------------------------------
	st := store.New()

	var snapshotter persistence.Snapshotter
	if cfg.DatabaseURL != "" {
		pg, err := persistence.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect snapshot database: %w", err)
		}
		defer pg.Close()
		snapshotter = pg
	} else {
		snapshotter = persistence.NewFile(cfg.SnapshotPath)
	}
	if snap, err := snapshotter.Load(ctx); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	} else if snap != nil {
		st.Restore(snap)
		logger.Info("state restored from snapshot",
			zap.Time("taken_at", snap.TakenAt),
			zap.Int("users", len(snap.Users)),
			zap.Int("channels", len(snap.Channels)),
		)
	}

	// ---------------------------------------------------------------
	// Sessions: Redis when configured, in-process table otherwise.
	// ---------------------------------------------------------------
	var sessions session.Authority
	if cfg.RedisURL != "" {
		sessions, err = session.NewRedis(ctx, cfg.RedisURL, cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("connect session store: %w", err)
		}
	} else {
		sessions = session.NewMemory(cfg.JWTSecret)
	}

	// ---------------------------------------------------------------
	// Domain services around the one shared store.
	// ---------------------------------------------------------------
	clock := scheduler.System()
	hub := events.NewHub()
	users := service.NewUsers(st, sessions, notify.NewLog(logger), media.PassThrough{}, cfg.ResetSecret, logger)
	channels := service.NewChannels(st, logger)
	messages := service.NewMessages(st, hub, clock, logger)
	deferred := service.NewDeferred(st, hub, clock, logger)
	standups := service.NewStandups(st, hub, clock, logger)

	// ---------------------------------------------------------------
	// Background work: one ticker for the due-time promotions, cron
	// for the periodic snapshot. Snapshots copy under the read lock
	// and serialize outside it.
	// ---------------------------------------------------------------
	runner := scheduler.NewRunner(cfg.TickInterval, clock, logger)
	runner.Register(func(now time.Time) { deferred.PromoteDue(now) })
	runner.Register(func(now time.Time) { standups.FinalizeDue(now) })
	go runner.Run(ctx)

	jobs := cron.New()
	if _, err := jobs.AddFunc(cfg.SnapshotCron, func() {
		if err := snapshotter.Save(ctx, st.Snapshot()); err != nil {
			logger.Error("snapshot failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule snapshots: %w", err)
	}
	jobs.Start()
	defer jobs.Stop()

	// ---------------------------------------------------------------
	// HTTP surface.
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	api.RegisterRoutes(srv, sessions, api.Handlers{
		Auth:    api.NewAuthHandler(users, logger),
		User:    api.NewUserHandler(users, logger),
		Channel: api.NewChannelHandler(channels, messages, logger),
		Message: api.NewMessageHandler(messages, deferred, logger),
		Standup: api.NewStandupHandler(standups, logger),
		Stream:  api.NewStreamHandler(channels, hub, logger),
	})

	logger.Info("starting tessera",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Duration("tick", cfg.TickInterval),
	)
	return srv.Run(":" + cfg.Port)
}
