package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"idxdata/internal/domain"
	"idxdata/internal/series"
	"idxdata/internal/store"
	"idxdata/internal/util"
	"idxdata/internal/yahoo"
)

// Coordinator dispatches one task per roster symbol to a bounded worker
// pool and collects every task's terminal outcome. A failed symbol is
// recorded and never aborts its siblings or the run; there are no retries
// within a run, transient provider errors are left to the next scheduled
// run.
type Coordinator struct {
	client  yahoo.ChartClient
	store   *store.FSStore
	journal *Journal
	archive *store.ParquetArchive // nil disables archiving
	limiter *util.RateLimiter     // nil disables the aggregate ceiling
	workers int
	pace    time.Duration // courtesy delay after each fetch
	suffix  string        // exchange suffix appended to the kode
	log     *slog.Logger
}

// NewCoordinator wires a coordinator. workers bounds concurrent outbound
// fetches independently of roster size; pace throttles the aggregate
// request rate as a courtesy to the provider.
func NewCoordinator(client yahoo.ChartClient, st *store.FSStore, journal *Journal, archive *store.ParquetArchive, limiter *util.RateLimiter, workers int, pace time.Duration, suffix string) *Coordinator {
	if workers <= 0 {
		workers = 1
	}
	return &Coordinator{
		client:  client,
		store:   st,
		journal: journal,
		archive: archive,
		limiter: limiter,
		workers: workers,
		pace:    pace,
		suffix:  suffix,
		log:     slog.Default().With("component", "ingest"),
	}
}

type symbolResult struct {
	kode    string
	outcome Outcome
}

// Run processes every symbol over the window and returns the summary. The
// roster is read-only; the journal is the only resource shared between
// workers. Cancelling ctx stops dispatching new tasks while letting
// in-flight tasks finish; symbols never dispatched carry no outcome and the
// summary is marked cancelled.
func (c *Coordinator) Run(ctx context.Context, symbols []domain.Symbol, mode domain.Mode, w domain.Window) *RunSummary {
	summary := &RunSummary{
		Mode:      mode,
		Window:    w,
		StartedAt: time.Now(),
		PerSymbol: make(map[string]Outcome, len(symbols)),
	}

	taskCh := make(chan domain.Symbol, len(symbols))
	for _, sym := range symbols {
		taskCh <- sym
	}
	close(taskCh)

	resCh := make(chan symbolResult, len(symbols))

	workers := min(c.workers, len(symbols))
	c.log.Info("starting run",
		"mode", string(mode),
		"symbols", len(symbols),
		"workers", workers,
		"start", w.Start.Format("2006-01-02"),
		"end", w.End.Format("2006-01-02"),
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range taskCh {
				if ctx.Err() != nil {
					return
				}
				resCh <- symbolResult{kode: sym.Kode, outcome: c.process(ctx, sym, w)}
			}
		}()
	}

	wg.Wait()
	close(resCh)

	for res := range resCh {
		summary.PerSymbol[res.kode] = res.outcome
	}
	summary.Cancelled = ctx.Err() != nil
	summary.FinishedAt = time.Now()

	done, failed, written, skipped := summary.Counts()
	c.log.Info("run complete",
		"done", done,
		"failed", failed,
		"written", written,
		"skipped", skipped,
		"elapsed", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second),
	)
	return summary
}

// process runs one symbol through the stage machine. Stages are strictly
// sequential within a task; any failure terminates the task after being
// journaled.
func (c *Coordinator) process(ctx context.Context, sym domain.Symbol, w domain.Window) Outcome {
	ticker := sym.Kode + c.suffix

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fail(sym, StageFetch, err)
	}

	resp, err := c.client.FetchDaily(ctx, ticker, w)
	c.pause(ctx)
	if err != nil {
		return c.fail(sym, StageFetch, err)
	}

	records, err := series.Normalize(sym, resp)
	if err != nil {
		return c.fail(sym, StageNormalize, err)
	}

	state, err := c.store.Observe(sym.Kode)
	if err != nil {
		return c.fail(sym, StagePlan, err)
	}
	plans, skipped := store.Plan(records, state)

	written, err := c.store.Apply(plans)
	if err != nil {
		return c.fail(sym, StageWrite, err)
	}

	if c.archive != nil && len(written) > 0 {
		// The archive is a secondary sink; a failure here never fails
		// the task, the primary artifacts are already durable.
		if err := c.archive.Archive(sym.Kode, written); err != nil {
			c.log.Warn("archive failed", "kode", sym.Kode, "err", err)
		}
	}

	c.log.Debug("symbol done", "kode", sym.Kode, "written", len(written), "skipped", skipped)
	return Outcome{Status: StatusDone, Written: len(written), Skipped: skipped}
}

// pause applies the fixed pacing delay after a fetch, success or failure.
func (c *Coordinator) pause(ctx context.Context) {
	if c.pace <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.pace):
	}
}

// fail journals the failure and builds the terminal outcome. Errors never
// propagate out of the task boundary.
func (c *Coordinator) fail(sym domain.Symbol, stage Stage, err error) Outcome {
	rec := FailureRecord{Kode: sym.Kode, Stage: stage, Message: err.Error(), Time: time.Now()}
	if jerr := c.journal.Record(rec); jerr != nil {
		c.log.Error("failure journal write failed", "kode", sym.Kode, "err", jerr)
	}
	c.log.Error("symbol failed", "kode", sym.Kode, "stage", string(stage), "err", err)
	return Outcome{Status: StatusFailed, Stage: stage, Err: err.Error()}
}
