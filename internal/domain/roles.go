package domain

// Role is a user's membership level on a farm.
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
	RoleViewer  Role = "VIEWER"
)

var roleRank = map[Role]int{
	RoleViewer:  1,
	RoleStaff:   2,
	RoleManager: 3,
	RoleAdmin:   4,
	RoleOwner:   5,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants at least the privileges of min.
// Unknown roles grant nothing.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min] && roleRank[r] > 0
}

// Membership links a user to a farm with a role. Server-only, never synced.
type Membership struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FarmID    string    `db:"farm_id" json:"farm_id"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt Timestamp `db:"created_at" json:"created_at"`
}

// Farm is the tenant scope owning all domain records. Farms themselves are
// not synced row-by-row; the local database keeps a mirror row per farm.
type Farm struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	OwnerUserID string    `db:"owner_user_id" json:"owner_user_id"`
	Currency    string    `db:"currency" json:"currency"`
	Timezone    string    `db:"timezone" json:"timezone"`
	CreatedAt   Timestamp `db:"created_at" json:"created_at"`
}
