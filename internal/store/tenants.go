package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/google/uuid"

	"github.com/agrolabs/pasture/internal/domain"
)

// MembershipRole returns the caller's role on a farm, or ErrNotFound when
// no membership exists. The sync API trusts nothing else: every remote
// operation resolves the (user, farm) pair through here first.
func (s *Store) MembershipRole(ctx context.Context, userID, farmID string) (domain.Role, error) {
	query, args, err := s.sb.Select("role").
		From("memberships").
		Where(squirrel.Eq{"user_id": userID, "farm_id": farmID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select: %w", err)
	}

	var role domain.Role
	if err := sqlscan.Get(ctx, s.db, &role, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return "", fmt.Errorf("membership %s/%s: %w", userID, farmID, ErrNotFound)
		}
		return "", fmt.Errorf("load membership: %w", err)
	}
	return role, nil
}

// AddMember links a user to a farm. Re-adding an existing member updates
// the role in place.
func (s *Store) AddMember(ctx context.Context, userID, farmID string, role domain.Role) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}

	query, args, err := s.sb.Insert("memberships").
		Columns("id", "user_id", "farm_id", "role", "created_at").
		Values(uuid.NewString(), userID, farmID, role, domain.Now()).
		Suffix("ON CONFLICT (user_id, farm_id) DO UPDATE SET role = excluded.role").
		ToSql()
	if err != nil {
		return fmt.Errorf("build membership insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// CreateFarm registers a farm and seeds its default categories so a fresh
// tenant looks the same on every device before its first sync. When the
// owner id is set, an OWNER membership is created alongside.
func (s *Store) CreateFarm(ctx context.Context, farm *domain.Farm) error {
	if farm.ID == "" {
		farm.ID = uuid.NewString()
	}
	if farm.CreatedAt.IsZero() {
		farm.CreatedAt = domain.Now()
	}
	if farm.Currency == "" {
		farm.Currency = "BRL"
	}
	if farm.Timezone == "" {
		farm.Timezone = "America/Sao_Paulo"
	}

	cols, vals := columnValues(farm)
	query, args, err := s.sb.Insert("farms").
		Columns(cols...).
		Values(vals...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build farm insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create farm: %w", err)
	}

	if farm.OwnerUserID != "" {
		if err := s.AddMember(ctx, farm.OwnerUserID, farm.ID, domain.RoleOwner); err != nil {
			return err
		}
	}

	catSpec, _ := domain.TableByName("categories")
	for _, cat := range domain.NewDefaultCategories(farm.ID, farm.CreatedAt) {
		if _, err := s.Apply(ctx, catSpec, farm.ID, cat, TieLoses); err != nil {
			return fmt.Errorf("seed categories: %w", err)
		}
	}
	return nil
}

// Farms lists the farms known to this database, ordered by name.
func (s *Store) Farms(ctx context.Context) ([]domain.Farm, error) {
	query, args, err := s.sb.Select("*").
		From("farms").
		OrderBy("name ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var farms []domain.Farm
	if err := sqlscan.Select(ctx, s.db, &farms, query, args...); err != nil {
		return nil, fmt.Errorf("load farms: %w", err)
	}
	return farms, nil
}

// BeginPushLog appends a STARTED sync_log entry for an incoming push and
// returns its id.
func (s *Store) BeginPushLog(ctx context.Context, userID, deviceID string, startedAt domain.Timestamp) (string, error) {
	id := uuid.NewString()
	query, args, err := s.sb.Insert("sync_log").
		Columns("id", "user_id", "device_id", "started_at", "status").
		Values(id, userID, deviceID, startedAt, string(domain.RunRunning)).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build sync_log insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("log push start: %w", err)
	}
	return id, nil
}

// FinishPushLog marks a sync_log entry terminal. Finished entries are
// immutable.
func (s *Store) FinishPushLog(ctx context.Context, logID string, status domain.RunStatus, finishedAt domain.Timestamp) error {
	query, args, err := s.sb.Update("sync_log").
		Set("status", string(status)).
		Set("finished_at", finishedAt).
		Where(squirrel.Eq{"id": logID}).
		Where("finished_at IS NULL").
		ToSql()
	if err != nil {
		return fmt.Errorf("build sync_log update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("log push finish: %w", err)
	}
	return nil
}
