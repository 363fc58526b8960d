// Command mcp exposes the screening flow as MCP tools over stdio.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/parkinsons-screening/internal/bootstrap"
	"github.com/kirillkom/parkinsons-screening/internal/config"
	"github.com/kirillkom/parkinsons-screening/internal/observability/logging"
)

const serverVersion = "1.0.0"

func main() {
	// Stdout carries the protocol; every log line goes to stderr.
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, "screening-mcp", cfg.LogLevel))

	screener, err := bootstrap.NewScreener(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	s := newServer(screener)
	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
