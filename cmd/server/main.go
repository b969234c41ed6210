package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/addrlens/addrlens/internal/config"
	"github.com/addrlens/addrlens/internal/mailer"
	"github.com/addrlens/addrlens/internal/proxy"
	"github.com/addrlens/addrlens/internal/server"
	"github.com/addrlens/addrlens/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "addrlens server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("starting addrlens server",
		slog.String("version", Version),
		slog.String("addr", cfg.Addr))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	cache, err := proxy.OpenCache(cfg.CachePath, cfg.ProxyCacheTTL)
	if err != nil {
		return fmt.Errorf("failed to open proxy cache: %w", err)
	}
	defer cache.Close()

	// Реальной доставки почты нет: ссылки подтверждения и сброса
	// пишутся в лог
	mail := mailer.NewLogMailer(logger)

	srv := server.New(logger, cfg, store, cache, mail)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("AddrLens Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
