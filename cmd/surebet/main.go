package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/surebet/config"
	"github.com/alejandrodnm/surebet/internal/adapters/demo"
	"github.com/alejandrodnm/surebet/internal/adapters/kalshi"
	"github.com/alejandrodnm/surebet/internal/adapters/notify"
	"github.com/alejandrodnm/surebet/internal/adapters/polymarket"
	"github.com/alejandrodnm/surebet/internal/adapters/storage"
	"github.com/alejandrodnm/surebet/internal/ledger"
	"github.com/alejandrodnm/surebet/internal/ports"
	"github.com/alejandrodnm/surebet/internal/scanner"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	scan := flag.Bool("scan", false, "run a single scan cycle and exit")
	run := flag.Bool("run", false, "run continuously on the configured interval")
	stats := flag.Bool("stats", false, "show performance statistics")
	positions := flag.Bool("positions", false, "show open positions")
	closed := flag.Bool("closed", false, "show closed positions")
	demoPoly := flag.Bool("demo-poly", false, "use simulated data for Polymarket")
	demoKalshi := flag.Bool("demo-kalshi", false, "use simulated data for Kalshi")
	noPoly := flag.Bool("no-poly", false, "disable Polymarket scanning")
	noKalshi := flag.Bool("no-kalshi", false, "disable Kalshi scanning")
	table := flag.Bool("table", false, "print full tables per cycle (default: compact 1-line)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	lg := ledger.New(store, cfg.Trading.FeeRate)
	console := notify.NewConsole(*table || *scan)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Display-only commands need no venue adapters.
	switch {
	case *stats:
		printStats(ctx, lg, console)
		return
	case *positions:
		printPositions(ctx, lg, console)
		return
	case *closed:
		printClosed(ctx, lg, console)
		return
	}

	venues, names := buildVenues(cfg, *noPoly, *noKalshi, *demoPoly, *demoKalshi)
	if len(venues) == 0 {
		slog.Error("all venues disabled, nothing to scan")
		os.Exit(1)
	}
	console.PrintBanner(names, *demoPoly || *demoKalshi)

	scanCfg := scanner.DefaultConfig()
	scanCfg.ScanInterval = cfg.ScanInterval()
	scanCfg.PriceLow = cfg.Trading.MinPrice
	scanCfg.PriceHigh = cfg.Trading.MaxPrice
	scanCfg.PositionSize = cfg.Trading.PositionSize
	scanCfg.Filter = scanner.FilterConfig{
		MaxPositions: cfg.Trading.MaxPositions,
		MinLiquidity: cfg.Trading.MinLiquidity,
		MinVolume24h: cfg.Trading.MinVolume24h,
	}

	sc := scanner.New(scanCfg, venues, lg, store, console)

	if *run {
		slog.Info("surebet starting",
			"config", *configPath,
			"interval", cfg.ScanInterval(),
			"venues", names,
			"position_size", cfg.Trading.PositionSize,
			"max_positions", cfg.Trading.MaxPositions,
		)
		if err := sc.Run(ctx); err != nil {
			slog.Error("scanner exited with error", "err", err)
			os.Exit(1)
		}
		slog.Info("surebet stopped cleanly")
		return
	}

	// Default (and -scan): one cycle.
	if _, err := sc.RunOnce(ctx); err != nil {
		slog.Error("scan failed", "err", err)
		os.Exit(1)
	}
}

// buildVenues wires the enabled venue adapters, swapping in demo sources
// where requested.
func buildVenues(cfg *config.Config, noPoly, noKalshi, demoPoly, demoKalshi bool) ([]ports.VenueAdapter, []string) {
	var (
		venues []ports.VenueAdapter
		names  []string
	)

	if cfg.Venues.Polymarket.Enabled && !noPoly {
		if demoPoly {
			venues = append(venues, demo.Polymarket())
		} else {
			venues = append(venues, polymarket.NewClient(cfg.Venues.Polymarket.GammaBase))
		}
		names = append(names, "Polymarket")
	}

	if cfg.Venues.Kalshi.Enabled && !noKalshi {
		if demoKalshi {
			venues = append(venues, demo.Kalshi())
		} else {
			client := kalshi.NewClient(cfg.Venues.Kalshi.APIBase)
			if keyID := config.KalshiAPIKeyID(); keyID != "" {
				if err := client.SetCredentials(keyID, config.KalshiPrivateKey()); err != nil {
					slog.Warn("kalshi credentials rejected, continuing unauthenticated", "err", err)
				} else {
					slog.Info("kalshi API key loaded", "key_id", keyID[:min(8, len(keyID))]+"...")
				}
			}
			venues = append(venues, client)
		}
		names = append(names, "Kalshi")
	}

	return venues, names
}

func printStats(ctx context.Context, lg *ledger.Ledger, console *notify.Console) {
	stats, err := lg.Stats(ctx)
	if err != nil {
		slog.Error("failed to load stats", "err", err)
		os.Exit(1)
	}
	console.PrintStats(stats)
}

func printPositions(ctx context.Context, lg *ledger.Ledger, console *notify.Console) {
	open, err := lg.OpenPositions(ctx)
	if err != nil {
		slog.Error("failed to load open positions", "err", err)
		os.Exit(1)
	}
	console.PrintOpenPositions(open)
}

func printClosed(ctx context.Context, lg *ledger.Ledger, console *notify.Console) {
	positions, err := lg.ClosedPositions(ctx)
	if err != nil {
		slog.Error("failed to load closed positions", "err", err)
		os.Exit(1)
	}
	console.PrintClosedPositions(positions)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
