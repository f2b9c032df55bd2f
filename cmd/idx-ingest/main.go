package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"idxdata/internal/catalog"
	"idxdata/internal/config"
	"idxdata/internal/domain"
	"idxdata/internal/ingest"
	"idxdata/internal/roster"
	"idxdata/internal/store"
	"idxdata/internal/util"
	"idxdata/internal/yahoo"
)

func main() {
	cfgPath := flag.String("config", "config/idxdata.yaml", "config file path")
	modeFlag := flag.String("mode", "incremental", "run mode: full or incremental")
	mock := flag.Bool("mock", false, "use synthetic data instead of the chart API")
	flag.Parse()

	if p := os.Getenv("IDXDATA_CONFIG"); p != "" {
		*cfgPath = p
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mode, err := domain.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("invalid mode: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Roster read failure is the only fatal, run-wide error: without a
	// roster there is nothing to dispatch.
	symbols, err := roster.Load(cfg.Roster.Path, cfg.Roster.NameFilter)
	if err != nil {
		log.Fatalf("failed to load roster: %v", err)
	}
	if len(symbols) == 0 {
		slog.Warn("roster is empty, nothing to do", "path", cfg.Roster.Path)
		return
	}

	journal, err := ingest.OpenJournal(cfg.Ingest.ErrorLog)
	if err != nil {
		log.Fatalf("failed to open failure journal: %v", err)
	}
	defer journal.Close()

	var recorder catalog.Recorder = catalog.NewNoopRecorder()
	if cfg.Storage.SQLitePath != "" {
		rec, err := catalog.NewSQLiteRecorder(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open run catalog: %v", err)
		}
		recorder = rec
	}
	defer recorder.Close()

	var client yahoo.ChartClient
	if *mock {
		client = &yahoo.MockClient{}
	} else {
		client = yahoo.NewClient(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout)
	}

	var archive *store.ParquetArchive
	if cfg.Storage.ArchiveParquet {
		archive = store.NewParquetArchive(cfg.Storage.OutputDir)
	}

	coord := ingest.NewCoordinator(
		client,
		store.NewFSStore(cfg.Storage.OutputDir),
		journal,
		archive,
		util.NewRateLimiter(cfg.Ingest.RateLimitPerMin),
		cfg.Ingest.MaxWorkers,
		cfg.Ingest.Pace,
		cfg.Yahoo.SymbolSuffix,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	window := domain.WindowFor(mode, time.Now(), cfg.Ingest.TrailingDays)
	summary := coord.Run(ctx, symbols, mode, window)

	if err := recorder.RecordRun(summary); err != nil {
		slog.Error("failed to record run", "err", err)
	}
}
