package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"linketron/internal/app"
	"linketron/internal/auth"
	"linketron/internal/config"
	"linketron/internal/credentials"
	"linketron/internal/logging"
	"linketron/internal/scheduler"
	"linketron/internal/server"
	"linketron/internal/session"
	"linketron/internal/storage"
	"linketron/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()
	if cfg.TelegramBotToken == "" {
		log.Fatalf("TELEGRAM_BOT_TOKEN is required")
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authSvc := newAuth(cfg, logger)

	creds, err := credentials.Open(cfg)
	if err != nil {
		logger.Fatal("failed to open credential store", zap.Error(err))
	}
	if c, ok := creds.(io.Closer); ok {
		defer c.Close()
	}

	var journal storage.Recorder
	if cfg.JournalFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.JournalFilePath)
		if err != nil {
			logger.Warn("journal disabled", zap.Error(err))
		} else {
			journal = fr
		}
	}

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}
	if !components.OAuth.Configured() {
		logger.Warn("LINKEDIN_CLIENT_ID / LINKEDIN_CLIENT_SECRET not set, login is disabled")
	}

	sessions := session.NewManager(cfg.ArtifactDir)
	bot, err := telegram.New(cfg.TelegramBotToken, telegram.Options{
		Auth:        authSvc,
		Sessions:    sessions,
		Researcher:  components.Researcher,
		Pipeline:    components.Pipeline,
		WebImages:   components.WebImages,
		Generator:   components.Generator,
		OAuth:       components.OAuth,
		Publisher:   components.Publisher,
		Credentials: creds,
		Journal:     journal,
		HTTPClient:  components.HTTPClient,
		ParseMode:   cfg.MessageParseMode,
		Timeout:     cfg.RequestTimeout,
		Logger:      logger.Named("telegram"),
	})
	if err != nil {
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	sched := scheduler.New(logger.Named("scheduler"))
	sched.SetSweepFunction(func(context.Context) error {
		if n := sessions.SweepIdle(cfg.SessionIdleTTL); n > 0 {
			logger.Info("idle sessions dropped", zap.Int("count", n))
		}
		return nil
	})
	if journal != nil && authSvc.AdminID() != 0 {
		sched.SetReportFunction(bot.SendDailyReport)
	}
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	if cfg.HTTPAddr != "" {
		srv := server.New(bot, logger.Named("http"))
		go func() {
			if err := srv.Run(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server stopped", zap.Error(err))
			}
		}()
	}

	logger.Info("linketron is running", zap.Int("lenses", len(components.Catalog.List())))
	bot.Start(ctx)
	logger.Info("shutting down")
}

func newAuth(cfg *config.Config, logger *zap.Logger) *auth.Service {
	var allowRepo, pendingRepo auth.Repository
	if cfg.AllowlistFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.AllowlistFilePath)
		if err != nil {
			logger.Warn("failed to init allowlist repo", zap.Error(err))
		} else {
			allowRepo = repo
		}
	}
	if cfg.PendingFilePath != "" {
		repo, err := auth.NewFileRepository(cfg.PendingFilePath)
		if err != nil {
			logger.Warn("failed to init pending repo", zap.Error(err))
		} else {
			pendingRepo = repo
		}
	}
	svc, err := auth.NewWithRepo(allowRepo, pendingRepo, cfg.AllowedUsers, cfg.AdminUserID)
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}
	if svc.Open() {
		logger.Warn("no ALLOWED_USERS or ADMIN_USER set, the bot is open to everyone")
	}
	return svc
}
