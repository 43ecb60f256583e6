package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wanwatcher/internal/config"
	"wanwatcher/internal/geo"
	"wanwatcher/internal/logger"
	"wanwatcher/internal/monitor"
	"wanwatcher/internal/notify"
	"wanwatcher/internal/resolver"
	"wanwatcher/internal/state"
	"wanwatcher/internal/update"
	"wanwatcher/internal/version"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	once := flag.Bool("once", false, "Run a single check and exit")
	flag.Parse()

	// Show version if requested
	if *showVersion {
		info := version.GetInfo()
		fmt.Println(info.String())
		os.Exit(0)
	}

	// Load optional .env before reading configuration
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
			os.Exit(1)
		}
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize components
	manager, err := notify.NewManager(&cfg.Notify, notify.Meta{
		ServerName:  cfg.Server.Name,
		BotName:     cfg.Server.BotName,
		Version:     version.Version,
		Environment: cfg.Server.Environment,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize notifications", zap.Error(err))
	}

	store := state.NewStore(cfg.State.File, log)
	res := resolver.New(&cfg.Monitor, log)

	var geoLookup monitor.GeoLookup
	if c := geo.NewClient(cfg.Geo.IPInfoToken, log); c != nil {
		geoLookup = c
	}

	m := monitor.New(&cfg.Monitor, res, store, manager, geoLookup, log)

	if *once {
		if err := m.RunOnce(ctx); err != nil {
			log.Fatal("Check failed", zap.Error(err))
		}
		return
	}

	if cfg.Update.Enabled {
		checker := update.NewChecker(&cfg.Update, version.Version, manager, log)
		go checker.Run(ctx)
	}

	if err := m.Run(ctx); err != nil {
		log.Fatal("Monitor error", zap.Error(err))
	}
}
