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
	"idxdata/internal/scheduler"
	"idxdata/internal/store"
	"idxdata/internal/util"
	"idxdata/internal/yahoo"
)

func main() {
	cfgPath := flag.String("config", "config/idxdata.yaml", "config file path")
	flag.Parse()

	if p := os.Getenv("IDXDATA_CONFIG"); p != "" {
		*cfgPath = p
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

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

	var archive *store.ParquetArchive
	if cfg.Storage.ArchiveParquet {
		archive = store.NewParquetArchive(cfg.Storage.OutputDir)
	}

	coord := ingest.NewCoordinator(
		yahoo.NewClient(cfg.Yahoo.BaseURL, cfg.Yahoo.Timeout),
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

	run := func(ctx context.Context) {
		// The roster is re-read per scheduled run so newly listed
		// companies are picked up without a restart.
		symbols, err := roster.Load(cfg.Roster.Path, cfg.Roster.NameFilter)
		if err != nil {
			slog.Error("failed to load roster", "err", err)
			return
		}
		window := domain.IncrementalWindow(time.Now(), cfg.Ingest.TrailingDays)
		summary := coord.Run(ctx, symbols, domain.ModeIncremental, window)
		if err := recorder.RecordRun(summary); err != nil {
			slog.Error("failed to record run", "err", err)
		}
	}

	sched := scheduler.New(ctx, run)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("failed to register schedule: %v", err)
	}

	sched.Start()
	slog.Info("daemon started", "cron", cfg.Schedule.Cron)
	<-ctx.Done()
	sched.Stop()
}
