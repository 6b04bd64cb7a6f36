package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/store"
)

// Transport is the network collaborator the orchestrator pushes to and
// pulls from. Implementations wrap failures in *TransportError.
type Transport interface {
	Push(ctx context.Context, req PushRequest) (*PushResponse, error)
	Pull(ctx context.Context, farmID string, since domain.Timestamp) (*PullResponse, error)
}

// Orchestrator drives sync cycles for one device against its local store.
type Orchestrator struct {
	local      *store.Store
	transport  Transport
	enumerator *Enumerator
}

// NewOrchestrator returns an Orchestrator bound to a local store and a
// transport to the server.
func NewOrchestrator(local *store.Store, transport Transport) *Orchestrator {
	return &Orchestrator{
		local:      local,
		transport:  transport,
		enumerator: NewEnumerator(local),
	}
}

// Report summarizes one sync cycle.
type Report struct {
	RunID      string           `json:"run_id"`
	FarmID     string           `json:"farm_id"`
	DeviceID   string           `json:"device_id"`
	Status     domain.RunStatus `json:"status"`
	StartedAt  domain.Timestamp `json:"started_at"`
	FinishedAt domain.Timestamp `json:"finished_at"`
	Pushed     int              `json:"pushed"`
	Pulled     int              `json:"pulled"`
	Applied    int              `json:"applied"`
	Failed     []RowError       `json:"failed,omitempty"`
}

// Cycle runs one full sync cycle for a farm: push local changes since the
// watermark, pull server changes since the same watermark, apply winners
// locally, then commit the new watermark.
//
// The committed watermark is the cycle's START timestamp, not "now": a
// long-running cycle may race concurrent local writes, and committing the
// start time keeps those writes inside the next cycle's window.
//
// Transport failure in either direction marks the run FAILED and leaves the
// watermark untouched; the next cycle re-sends the same batch, which is
// safe because application is idempotent under LWW. Individual row failures
// mark the run PARTIAL but still commit: the failed rows are independent
// and are reported by id.
func (o *Orchestrator) Cycle(ctx context.Context, farmID string) (*Report, error) {
	start := time.Now()
	startTS := domain.At(start)

	deviceID, err := o.local.DeviceID(ctx)
	if err != nil {
		return nil, err
	}

	since, _, err := o.local.LastSync(ctx, farmID, deviceID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     ulid.Make().String(),
		FarmID:    farmID,
		DeviceID:  deviceID,
		Status:    domain.RunRunning,
		StartedAt: startTS,
	}

	run := &domain.SyncRun{
		ID:        report.RunID,
		FarmID:    farmID,
		DeviceID:  deviceID,
		StartedAt: startTS,
		Status:    domain.RunRunning,
	}
	if err := o.local.BeginRun(ctx, run); err != nil {
		return nil, err
	}

	slog.Info("sync cycle started",
		"component", "sync",
		"run_id", report.RunID,
		"farm_id", farmID,
		"device_id", deviceID,
		"since", since.String(),
	)

	// Push phase.
	payload, pushed, err := o.enumerator.Collect(ctx, farmID, since)
	if err != nil {
		return o.fail(ctx, report, fmt.Errorf("enumerate local changes: %w", err))
	}
	report.Pushed = pushed

	pushResp, err := o.transport.Push(ctx, PushRequest{
		FarmID:     farmID,
		DeviceID:   deviceID,
		LastSyncAt: since,
		Payload:    payload,
	})
	if err != nil {
		return o.fail(ctx, report, err)
	}
	report.Failed = append(report.Failed, pushResp.Failed...)

	// Pull phase.
	pullResp, err := o.transport.Pull(ctx, farmID, since)
	if err != nil {
		return o.fail(ctx, report, err)
	}

	if err := o.applyPulled(ctx, farmID, pullResp.Payload, report); err != nil {
		return o.fail(ctx, report, err)
	}

	// Commit.
	report.Status = domain.RunSuccess
	if len(report.Failed) > 0 {
		report.Status = domain.RunPartial
	}

	if err := o.local.SetLastSync(ctx, farmID, deviceID, startTS); err != nil {
		return o.fail(ctx, report, fmt.Errorf("advance watermark: %w", err))
	}

	report.FinishedAt = domain.Now()
	if err := o.local.FinishRun(ctx, report.RunID, report.Status, report.FinishedAt, runDetail(report)); err != nil {
		return nil, err
	}

	slog.Info("sync cycle finished",
		"component", "sync",
		"run_id", report.RunID,
		"farm_id", farmID,
		"status", string(report.Status),
		"pushed", report.Pushed,
		"pulled", report.Pulled,
		"applied", report.Applied,
		"failed", len(report.Failed),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

// applyPulled applies server rows to the local store under LWW with the
// remote side winning ties. A scope-violating row aborts the whole cycle;
// any other per-row failure is recorded and the remaining rows proceed.
func (o *Orchestrator) applyPulled(ctx context.Context, farmID string, payload Payload, report *Report) error {
	for _, table := range domain.Tables {
		rows := payload[table.Name]
		for _, raw := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Pulled++

			rec, err := table.Decode(raw)
			if err != nil {
				report.Failed = append(report.Failed, RowError{
					Table: table.Name, ID: rowID(raw), Reason: err.Error(),
				})
				continue
			}

			applied, err := o.local.Apply(ctx, table, farmID, rec, store.TieWins)
			if err != nil {
				if errors.Is(err, store.ErrScopeViolation) {
					return err
				}
				report.Failed = append(report.Failed, RowError{
					Table: table.Name, ID: rec.RecordID(), Reason: err.Error(),
				})
				continue
			}
			if applied {
				report.Applied++
			}
		}
	}
	for name := range payload {
		if _, ok := domain.TableByName(name); !ok {
			slog.Warn("ignoring rows for unknown table",
				"component", "sync", "table", name, "rows", len(payload[name]))
		}
	}
	return nil
}

// fail marks the run FAILED without advancing the watermark. Rows already
// applied stand; re-applying them next cycle is a no-op under LWW.
func (o *Orchestrator) fail(ctx context.Context, report *Report, cause error) (*Report, error) {
	report.Status = domain.RunFailed
	report.FinishedAt = domain.Now()

	// The cycle may have failed because ctx was cancelled; the audit write
	// still has to land.
	ctx = context.WithoutCancel(ctx)
	if err := o.local.FinishRun(ctx, report.RunID, domain.RunFailed, report.FinishedAt, cause.Error()); err != nil {
		slog.Error("failed to record run outcome",
			"component", "sync", "run_id", report.RunID, "error", err)
	}

	slog.Error("sync cycle failed",
		"component", "sync",
		"run_id", report.RunID,
		"farm_id", report.FarmID,
		"error", cause,
	)
	return report, cause
}

func runDetail(report *Report) string {
	if len(report.Failed) == 0 {
		return ""
	}
	return fmt.Sprintf("%d rows failed to apply", len(report.Failed))
}

// rowID pulls the id out of a raw row that failed to decode fully.
func rowID(raw []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}
