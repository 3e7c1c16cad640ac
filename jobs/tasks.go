package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskLedgerIntegrity replays every ledger account and flags balance drift.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskSyslogCleanup prunes system log rows past their retention window.
	TaskSyslogCleanup = "syslog:cleanup"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// NewLedgerIntegrityTask constructs a ledger integrity sweep task.
func NewLedgerIntegrityTask() *asynq.Task {
	return asynq.NewTask(TaskLedgerIntegrity, nil)
}

// NewSyslogCleanupTask constructs a system log retention task.
func NewSyslogCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskSyslogCleanup, nil)
}

// NewIdempotencyCleanupTask constructs an idempotency key retention task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}
