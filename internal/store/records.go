package store

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/agrolabs/pasture/internal/domain"
)

// TiePolicy selects the comparison used when an incoming row's updated_at
// exactly equals the stored row's. The server is authoritative on ties:
// rows pulled FROM the server overwrite on equality (TieWins), rows pushed
// TO the server do not (TieLoses).
type TiePolicy int

const (
	// TieLoses applies the incoming row only when strictly newer.
	TieLoses TiePolicy = iota
	// TieWins applies the incoming row when newer or equal.
	TieWins
)

// ChangedSince returns every row of the table whose updated_at is after the
// cutoff, tombstones included, ordered by updated_at ascending (id breaks
// ties) so an interrupted enumeration re-run from the same cutoff yields a
// superset. A zero cutoff returns the table's full history for the farm.
func (s *Store) ChangedSince(ctx context.Context, table domain.TableSpec, farmID string, since domain.Timestamp) ([]domain.Record, error) {
	q := s.sb.Select("*").
		From(table.Name).
		Where(squirrel.Eq{"farm_id": farmID}).
		OrderBy("updated_at ASC", "id ASC")
	if !since.IsZero() {
		q = q.Where(squirrel.Gt{"updated_at": since})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	dest := table.NewList()
	if err := sqlscan.Select(ctx, s.db, dest, query, args...); err != nil {
		return nil, fmt.Errorf("select changed %s: %w", table.Name, err)
	}

	return table.Records(dest), nil
}

// Apply inserts the record, or overwrites the stored row when the incoming
// one wins under last-write-wins. The whole decision runs inside a single
// conditional upsert, so two concurrent applications of the same id resolve
// deterministically without a long-lived lock. Returns whether the row was
// written; a false return means the stored row was already as new or newer.
func (s *Store) Apply(ctx context.Context, table domain.TableSpec, farmID string, rec domain.Record, tie TiePolicy) (bool, error) {
	if rec.Farm() != farmID {
		return false, fmt.Errorf("%w: row %s/%s belongs to farm %q",
			ErrScopeViolation, table.Name, rec.RecordID(), rec.Farm())
	}

	cols, vals := columnValues(rec)

	op := ">"
	if tie == TieWins {
		op = ">="
	}

	set := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "id" {
			continue
		}
		set = append(set, fmt.Sprintf("%s = excluded.%s", c, c))
	}
	// Full-row replacement: the winner's entire content replaces the loser,
	// never a field-by-field merge.
	suffix := fmt.Sprintf(
		"ON CONFLICT (id) DO UPDATE SET %s WHERE excluded.updated_at %s %s.updated_at",
		strings.Join(set, ", "), op, table.Name,
	)

	query, args, err := s.sb.Insert(table.Name).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build upsert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("upsert %s/%s: %w", table.Name, rec.RecordID(), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SoftDelete marks the row as a tombstone and bumps updated_at so the
// deletion propagates as an ordinary change. The row stays in the table;
// nothing is ever physically removed while sync is in use.
func (s *Store) SoftDelete(ctx context.Context, table domain.TableSpec, farmID, id string, ts domain.Timestamp) error {
	if _, err := s.Get(ctx, table, farmID, id); err != nil {
		return err
	}

	query, args, err := s.sb.Update(table.Name).
		Set("deleted_at", ts).
		Set("updated_at", ts).
		Where(squirrel.Eq{"id": id, "farm_id": farmID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build soft delete: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("soft delete %s/%s: %w", table.Name, id, err)
	}
	return nil
}

// Get fetches a single row by id, tombstones included.
func (s *Store) Get(ctx context.Context, table domain.TableSpec, farmID, id string) (domain.Record, error) {
	query, args, err := s.sb.Select("*").
		From(table.Name).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rec := table.New()
	if err := sqlscan.Get(ctx, s.db, rec, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return nil, fmt.Errorf("%s/%s: %w", table.Name, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s/%s: %w", table.Name, id, err)
	}

	if rec.Farm() != farmID {
		return nil, fmt.Errorf("%w: row %s/%s belongs to farm %q",
			ErrScopeViolation, table.Name, id, rec.Farm())
	}
	return rec, nil
}

// ListLive returns the farm's non-deleted rows, the view the read-side
// veneer (dashboards, exports) consumes.
func (s *Store) ListLive(ctx context.Context, table domain.TableSpec, farmID string) ([]domain.Record, error) {
	query, args, err := s.sb.Select("*").
		From(table.Name).
		Where(squirrel.Eq{"farm_id": farmID}).
		Where("deleted_at IS NULL").
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	dest := table.NewList()
	if err := sqlscan.Select(ctx, s.db, dest, query, args...); err != nil {
		return nil, fmt.Errorf("list live %s: %w", table.Name, err)
	}

	return table.Records(dest), nil
}

// columnValues flattens a record into parallel column/value slices using its
// db tags, embedded structs included, in deterministic column order.
func columnValues(rec any) ([]string, []any) {
	m := map[string]any{}
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	collectFields(v, m)

	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = m[c]
	}
	return cols, vals
}

func collectFields(v reflect.Value, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(v.Field(i), out)
			continue
		}
		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out[tag] = v.Field(i).Interface()
	}
}
