package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/store"
)

// Enumerator walks every syncable table of a farm and yields the rows whose
// updated_at is newer than a cutoff, tombstones included. Enumeration is
// restartable: the same cutoff yields at least the same rows again, so an
// interrupted cycle that never advanced its watermark loses nothing.
type Enumerator struct {
	store *store.Store
}

// NewEnumerator returns an Enumerator over the given store.
func NewEnumerator(s *store.Store) *Enumerator {
	return &Enumerator{store: s}
}

// Each calls fn for every changed row, table by table in registry order,
// rows ordered by updated_at ascending within a table. A zero cutoff means
// "everything" (first-ever sync).
func (e *Enumerator) Each(ctx context.Context, farmID string, since domain.Timestamp, fn func(table domain.TableSpec, rec domain.Record) error) error {
	for _, table := range domain.Tables {
		recs, err := e.store.ChangedSince(ctx, table, farmID, since)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(table, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// Collect materializes the changed rows into a wire payload and returns the
// total row count.
func (e *Enumerator) Collect(ctx context.Context, farmID string, since domain.Timestamp) (Payload, int, error) {
	payload := Payload{}
	total := 0

	err := e.Each(ctx, farmID, since, func(table domain.TableSpec, rec domain.Record) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", table.Name, rec.RecordID(), err)
		}
		payload[table.Name] = append(payload[table.Name], data)
		total++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return payload, total, nil
}
