package domain

// RunStatus is the lifecycle state of one sync cycle.
// RUNNING is the only non-terminal state.
type RunStatus string

const (
	RunRunning RunStatus = "RUNNING"
	RunSuccess RunStatus = "SUCCESS"
	RunFailed  RunStatus = "FAILED"
	RunPartial RunStatus = "PARTIAL"
)

// Terminal reports whether the status ends a cycle.
func (s RunStatus) Terminal() bool {
	return s == RunSuccess || s == RunFailed || s == RunPartial
}

// SyncRun is one audit entry for a sync cycle executed by a device.
// Append-only: once finished_at is set the row is never mutated again.
type SyncRun struct {
	ID         string    `db:"id" json:"id"`
	FarmID     string    `db:"farm_id" json:"farm_id"`
	DeviceID   string    `db:"device_id" json:"device_id"`
	StartedAt  Timestamp `db:"started_at" json:"started_at"`
	FinishedAt Timestamp `db:"finished_at" json:"finished_at"`
	Status     RunStatus `db:"status" json:"status"`
	Detail     string    `db:"detail" json:"detail"`
}
