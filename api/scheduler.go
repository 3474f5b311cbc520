/*
scheduler.go - Automated report runs

PURPOSE:
  Periodically looks for scheduled reports whose next_run has arrived and
  marks them run. This is the same bookkeeping POST /reports/{id}/run performs.

DESIGN:
  - A robfig/cron scheduler fires every CheckInterval; a run still in
    progress makes the next tick skip
  - Each due report is re-read and updated in its own transaction, so a
    report run manually in between is not advanced twice
  - Failures are logged and retried on the next tick

CONFIGURATION:
  - REPORT_CHECK_INTERVAL: How often to check (0 disables the scheduler)

USAGE:
  scheduler := NewReportScheduler(handler, cfg.ReportCheckInterval)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - reports.go: RunReport endpoint (manual run)
  - reports/schedule.go: MarkRun, IsDue
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/schooladmin/domain"
	"github.com/warp/schooladmin/reports"
)

// ReportScheduler runs due reports periodically.
type ReportScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration

	// now is replaced in tests.
	now func() time.Time

	cron *cron.Cron
	mu   sync.Mutex
}

func NewReportScheduler(h *Handler, interval time.Duration) *ReportScheduler {
	return &ReportScheduler{
		Handler:       h,
		CheckInterval: interval,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Start begins the scheduler. It does nothing when the interval is zero or
// the scheduler is already running. The first check happens one interval
// after Start.
func (rs *ReportScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.CheckInterval <= 0 {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}
	if rs.cron != nil {
		return
	}

	rs.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	rs.cron.Schedule(cron.Every(rs.CheckInterval), cron.FuncJob(func() {
		rs.RunDue(context.Background())
	}))
	rs.cron.Start()

	log.Printf("[Scheduler] Started with check interval: %v", rs.CheckInterval)
}

// Stop halts the scheduler and waits for a running check to finish.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.cron == nil {
		return
	}
	<-rs.cron.Stop().Done()
	rs.cron = nil
	log.Println("[Scheduler] Stopped")
}

// RunDue marks every due report run and returns how many were processed.
func (rs *ReportScheduler) RunDue(ctx context.Context) int {
	now := rs.now()
	store := rs.Handler.Store

	due, err := store.Reports().List(ctx, domain.ReportFilter{IsScheduled: domain.Ptr(true), DueBy: &now})
	if err != nil {
		log.Printf("[Scheduler] Error listing due reports: %v", err)
		return 0
	}

	processed := 0
	for _, report := range due {
		ran := false
		err := store.WithTx(ctx, func(tx domain.Store) error {
			current, err := tx.Reports().Get(ctx, report.ID)
			if err != nil {
				return err
			}
			if !reports.IsDue(*current, now) {
				return nil
			}
			next := reports.MarkRun(*current, now)
			if err := tx.Reports().Update(ctx, &next); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			log.Printf("[Scheduler] Error running report %d: %v", report.ID, err)
			continue
		}
		if ran {
			processed++
		}
	}

	if processed > 0 {
		log.Printf("[Scheduler] Completed: %d reports run", processed)
	}
	return processed
}
