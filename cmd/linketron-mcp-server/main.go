package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"linketron/internal/app"
	"linketron/internal/config"
	"linketron/internal/logging"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("❌ failed to parse config: %v", err)
	}
	// stdout belongs to the MCP transport; zap writes to stderr
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("❌ failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "linketron-mcp",
		Version: "1.0.0",
	}, nil)
	tools := NewContentTools(components, cfg.RequestTimeout, logger.Named("mcp"))
	tools.Register(server)

	logger.Info("starting MCP server on stdin/stdout", zap.Strings("tools", toolNames))
	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
