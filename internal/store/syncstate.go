package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/oklog/ulid/v2"

	"github.com/agrolabs/pasture/internal/domain"
)

// DeviceID returns this installation's device identity, generating and
// persisting one on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := sqlscan.Get(ctx, s.db, &id, "SELECT id FROM devices LIMIT 1")
	if err == nil {
		return id, nil
	}
	if !sqlscan.NotFound(err) {
		return "", fmt.Errorf("load device id: %w", err)
	}

	id = ulid.Make().String()
	query, args, err := s.sb.Insert("devices").
		Columns("id", "created_at").
		Values(id, domain.Now()).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build device insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("persist device id: %w", err)
	}
	return id, nil
}

// LastSync returns the watermark for a farm/device pair. ok is false when
// the pair has never completed a cycle, which means "sync everything".
func (s *Store) LastSync(ctx context.Context, farmID, deviceID string) (ts domain.Timestamp, ok bool, err error) {
	query, args, err := s.sb.Select("last_sync_at").
		From("sync_state").
		Where(squirrel.Eq{"farm_id": farmID, "device_id": deviceID}).
		ToSql()
	if err != nil {
		return domain.Timestamp{}, false, fmt.Errorf("build select: %w", err)
	}

	if err := sqlscan.Get(ctx, s.db, &ts, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return domain.Timestamp{}, false, nil
		}
		return domain.Timestamp{}, false, fmt.Errorf("load watermark: %w", err)
	}
	return ts, true, nil
}

// SetLastSync advances the watermark for a farm/device pair.
func (s *Store) SetLastSync(ctx context.Context, farmID, deviceID string, ts domain.Timestamp) error {
	query, args, err := s.sb.Insert("sync_state").
		Columns("farm_id", "device_id", "last_sync_at").
		Values(farmID, deviceID, ts).
		Suffix("ON CONFLICT (farm_id, device_id) DO UPDATE SET last_sync_at = excluded.last_sync_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build watermark upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set watermark: %w", err)
	}
	return nil
}

// BeginRun appends a RUNNING audit entry for a new cycle.
func (s *Store) BeginRun(ctx context.Context, run *domain.SyncRun) error {
	cols, vals := columnValues(run)
	query, args, err := s.sb.Insert("sync_runs").
		Columns(cols...).
		Values(vals...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("log run start: %w", err)
	}
	return nil
}

// FinishRun records the cycle's terminal status. Rows already finished are
// never touched again; the audit trail is append-only.
func (s *Store) FinishRun(ctx context.Context, runID string, status domain.RunStatus, finishedAt domain.Timestamp, detail string) error {
	query, args, err := s.sb.Update("sync_runs").
		Set("status", status).
		Set("finished_at", finishedAt).
		Set("detail", detail).
		Where(squirrel.Eq{"id": runID}).
		Where("finished_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build run update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("log run finish: %w", err)
	}
	return nil
}

// Runs returns the audit trail for a farm, newest first.
func (s *Store) Runs(ctx context.Context, farmID string) ([]domain.SyncRun, error) {
	query, args, err := s.sb.Select("*").
		From("sync_runs").
		Where(squirrel.Eq{"farm_id": farmID}).
		OrderBy("started_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var runs []domain.SyncRun
	if err := sqlscan.Select(ctx, s.db, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("load runs: %w", err)
	}
	return runs, nil
}
