// Preflight - Know what you are signing before you sign it.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opensource-finance/preflight/internal/api"
	"github.com/opensource-finance/preflight/internal/bus"
	"github.com/opensource-finance/preflight/internal/cache"
	"github.com/opensource-finance/preflight/internal/chain"
	"github.com/opensource-finance/preflight/internal/config"
	"github.com/opensource-finance/preflight/internal/domain"
	"github.com/opensource-finance/preflight/internal/etherscan"
	"github.com/opensource-finance/preflight/internal/intel"
	"github.com/opensource-finance/preflight/internal/logging"
	"github.com/opensource-finance/preflight/internal/metrics"
	"github.com/opensource-finance/preflight/internal/pipeline"
	"github.com/opensource-finance/preflight/internal/repository"
	"github.com/opensource-finance/preflight/internal/risk"
	"github.com/opensource-finance/preflight/internal/tracing"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	slog.Info("starting preflight",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"intel_source", cfg.Intel.Source,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"rate_limit_rps", cfg.Server.RateLimitRPS,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, Version, logger)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Scam intelligence is loaded once; a missing source leaves the index empty.
	source, repo, err := intelSource(cfg)
	if err != nil {
		slog.Error("failed to initialize intel repository", "error", err)
		os.Exit(1)
	}
	if repo != nil {
		defer repo.Close()
	}
	index := intel.Load(ctx, source, logger)
	stats := index.Stats()
	metrics.SetIntelRecords(stats.Wallets, stats.Contracts, stats.Clusters, stats.ClusterMembers)

	// Upstream providers
	var provider domain.BlockchainDataProvider = chain.Offline{}
	chainClient, err := chain.Dial(ctx, chain.Config{
		RPCURL:        cfg.Chain.RPCURL,
		TransferLimit: cfg.Chain.TransferLimit,
		Timeout:       cfg.Chain.UpstreamTimeout,
	})
	if err != nil {
		slog.Warn("blockchain data unavailable, on-chain signals will be unknown", "error", err)
	} else {
		defer chainClient.Close()
		provider = chainClient
	}

	scanner := etherscan.New(etherscan.Config{
		BaseURL: cfg.Etherscan.BaseURL,
		APIKey:  cfg.Etherscan.APIKey,
		Timeout: cfg.Chain.UpstreamTimeout,
	})
	if !scanner.HasKey() {
		slog.Warn("ETHERSCAN_API_KEY not set, contract verification will be unknown")
	}

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	verifier := cache.NewCachedVerifier(scanner, cacheImpl, cfg.Cache.VerificationTTL, logger)
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	if busImpl != nil {
		defer busImpl.Close()
		if _, err := bus.LogAlerts(ctx, busImpl, logger); err != nil {
			slog.Error("failed to subscribe to alerts", "error", err)
			os.Exit(1)
		}
		slog.Info("event bus initialized", "type", cfg.EventBus.Type)
	}

	// Scoring
	heuristics, err := loadHeuristics(cfg.Heuristics.File)
	if err != nil {
		slog.Error("failed to load heuristics", "error", err)
		os.Exit(1)
	}
	scorer := risk.NewScorer(risk.DefaultRuleTable(), heuristics, logger)
	slog.Info("risk scorer initialized", "heuristics", heuristics.Count())

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if busImpl != nil {
		opts = append(opts, pipeline.WithEventBus(busImpl))
	}
	orchestrator := pipeline.New(provider, verifier, index, scorer, opts...)

	// Initialize Server
	deps := api.Dependencies{
		Analyzer: orchestrator,
		Index:    index,
		Cache:    cacheImpl,
		Bus:      busImpl,
		Version:  Version,
	}
	if repo != nil {
		deps.Repository = repo
	}
	srv := api.NewServer(cfg.Server, deps)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("preflight is ready", "addr", srv.Addr())

	printBanner(cfg, Version, stats)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Error("failed to flush traces", "error", err)
	}

	slog.Info("preflight shutdown complete")
}

// intelSource returns the configured feed source. SQL sources also return
// the repository so it can be health checked and closed.
func intelSource(cfg *domain.Config) (domain.IntelSource, *repository.SQLRepository, error) {
	switch cfg.Intel.Source {
	case domain.IntelSourceSQLite, domain.IntelSourcePostgres:
		repo, err := repository.New(cfg.Repository)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("intel repository initialized", "driver", cfg.Repository.Driver)
		return repo, repo, nil
	default:
		return intel.FileSource{Path: cfg.Intel.Path}, nil, nil
	}
}

// loadHeuristics builds the engine from the built-in set plus the operator file, if any.
func loadHeuristics(path string) (*risk.HeuristicEngine, error) {
	var extra []risk.Heuristic
	if path != "" {
		loaded, err := risk.LoadHeuristicsFile(path)
		if err != nil {
			return nil, fmt.Errorf("heuristics file %s: %w", path, err)
		}
		extra = loaded
	}
	return risk.DefaultHeuristicEngine(extra...)
}

func printBanner(cfg *domain.Config, version string, stats intel.Stats) {
	fmt.Println()
	fmt.Println("  +-------------------------------------------+")
	fmt.Println("  |                PREFLIGHT                  |")
	fmt.Println("  |   Pre-signing transaction risk analysis   |")
	fmt.Println("  +-------------------------------------------+")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  Intel:    %d wallets, %d contracts, %d clusters (%s)\n",
		stats.Wallets, stats.Contracts, stats.Clusters, cfg.Intel.Source)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /analyze          - Score a transaction before signing")
	fmt.Println("    GET  /intel/{address}  - Look up an address in scam intelligence")
	fmt.Println("    GET  /health           - Health check")
	fmt.Println("    GET  /metrics          - Prometheus metrics")
	fmt.Println()
}
