package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/tradepost-erp/tradepost/internal/jobs"
	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/shared"
	"github.com/tradepost-erp/tradepost/internal/syslog"
)

// Maintenance bundles the dependencies shared by the recurring jobs.
type Maintenance struct {
	Logger  *slog.Logger
	Ledger  *ledger.Service
	Syslog  *syslog.Store
	IdemKey *shared.IdempotencyStore
	Metrics *jobmetrics.Metrics

	SyslogRetention      time.Duration
	IdempotencyRetention time.Duration
}

// TaskHandlers returns the Asynq handlers for registration on the worker mux.
func (m *Maintenance) TaskHandlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskLedgerIntegrity, Handler: m.HandleLedgerIntegrity},
		{Type: TaskSyslogCleanup, Handler: m.HandleSyslogCleanup},
		{Type: TaskIdempotencyCleanup, Handler: m.HandleIdempotencyCleanup},
	}
}

// HandleLedgerIntegrity replays every party and bank account against its
// stored balance and records a system log entry per drifting account.
func (m *Maintenance) HandleLedgerIntegrity(ctx context.Context, _ *asynq.Task) error {
	tracker := m.Metrics.Track("ledger_integrity")
	dirty := 0
	for _, kind := range []ledger.AccountKind{ledger.KindParty, ledger.KindBank} {
		reports, err := m.Ledger.VerifyAll(ctx, kind)
		if err != nil {
			return tracker.End(fmt.Errorf("jobs: verify %s accounts: %w", kind, err))
		}
		for _, report := range reports {
			dirty++
			m.Logger.Error("ledger balance drift",
				slog.String("kind", string(report.Kind)),
				slog.Int64("account_id", report.AccountID),
				slog.String("stored", report.Stored.String()),
				slog.String("replayed", report.Replayed.String()))
			if err := m.Syslog.Record(ctx, syslog.LevelError, "ledger-integrity",
				fmt.Sprintf("balance drift on %s account %d", report.Kind, report.AccountID),
				map[string]any{
					"account_id": report.AccountID,
					"kind":       report.Kind,
					"stored":     report.Stored.String(),
					"replayed":   report.Replayed.String(),
					"drift":      report.Drift.String(),
					"entries":    report.Entries,
				}); err != nil {
				m.Logger.Warn("record integrity drift", slog.Any("error", err))
			}
		}
	}
	m.Logger.Info("ledger integrity sweep finished", slog.Int("dirty_accounts", dirty))
	return tracker.End(nil)
}

// HandleSyslogCleanup deletes system log rows older than the retention window.
func (m *Maintenance) HandleSyslogCleanup(ctx context.Context, _ *asynq.Task) error {
	tracker := m.Metrics.Track("syslog_cleanup")
	deleted, err := m.Syslog.Cleanup(ctx, m.SyslogRetention)
	if err != nil {
		return tracker.End(fmt.Errorf("jobs: syslog cleanup: %w", err))
	}
	m.Logger.Info("system log cleanup finished", slog.Int64("deleted", deleted))
	return tracker.End(nil)
}

// HandleIdempotencyCleanup prunes idempotency keys past their retention.
func (m *Maintenance) HandleIdempotencyCleanup(ctx context.Context, _ *asynq.Task) error {
	tracker := m.Metrics.Track("idempotency_cleanup")
	if err := m.IdemKey.Cleanup(ctx, m.IdempotencyRetention); err != nil {
		return tracker.End(fmt.Errorf("jobs: idempotency cleanup: %w", err))
	}
	m.Logger.Info("idempotency key cleanup finished")
	return tracker.End(nil)
}
