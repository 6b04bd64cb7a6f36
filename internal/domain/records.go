// Package domain defines the syncable farm entities and the shared record
// shape every table carries: a client-generated id, an owning farm, audit
// timestamps, and a soft-delete tombstone.
package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Meta holds the columns shared by every syncable table. Entities embed it,
// which also flattens the fields into the JSON wire representation.
type Meta struct {
	ID        string    `db:"id" json:"id"`
	FarmID    string    `db:"farm_id" json:"farm_id"`
	CreatedAt Timestamp `db:"created_at" json:"created_at"`
	UpdatedAt Timestamp `db:"updated_at" json:"updated_at"`
	DeletedAt Timestamp `db:"deleted_at" json:"deleted_at"`
}

// RecordID returns the record's immutable identifier.
func (m *Meta) RecordID() string { return m.ID }

// Farm returns the owning farm id.
func (m *Meta) Farm() string { return m.FarmID }

// Updated returns the last-modification timestamp used for conflict resolution.
func (m *Meta) Updated() Timestamp { return m.UpdatedAt }

// Deleted reports whether the record is a tombstone.
func (m *Meta) Deleted() bool { return !m.DeletedAt.IsZero() }

// Init stamps a fresh record: new UUID, creation and update time set to ts.
func (m *Meta) Init(farmID string, ts Timestamp) {
	m.ID = uuid.NewString()
	m.FarmID = farmID
	m.CreatedAt = ts
	m.UpdatedAt = ts
	m.DeletedAt = Timestamp{}
}

// Touch bumps updated_at. Every local mutation goes through here.
func (m *Meta) Touch(ts Timestamp) { m.UpdatedAt = ts }

// Tombstone soft-deletes the record, bumping updated_at so the deletion
// propagates as a regular change event.
func (m *Meta) Tombstone(ts Timestamp) {
	m.DeletedAt = ts
	m.UpdatedAt = ts
}

// Record is the uniform view the sync engine has of any syncable row.
type Record interface {
	Table() string
	RecordID() string
	Farm() string
	Updated() Timestamp
	Deleted() bool
	Touch(ts Timestamp)
	Tombstone(ts Timestamp)
}

// Category is a cost/income grouping. Direct-cost categories feed margin
// calculations in the reporting layer.
type Category struct {
	Meta
	Name         string `db:"name" json:"name"`
	IsDirectCost Flag   `db:"is_direct_cost" json:"is_direct_cost"`
}

func (*Category) Table() string { return "categories" }

// Income is a revenue entry.
type Income struct {
	Meta
	Date        string          `db:"date" json:"date"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Source      string          `db:"source" json:"source"`
}

func (*Income) Table() string { return "income" }

// Expense is a cost entry, optionally tied to a category by soft reference.
type Expense struct {
	Meta
	Date        string          `db:"date" json:"date"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Vendor      string          `db:"vendor" json:"vendor"`
	IsUnplanned Flag            `db:"is_unplanned" json:"is_unplanned"`
}

func (*Expense) Table() string { return "expense" }

// Item types.
const (
	ItemTypeFeed    = "FEED"
	ItemTypeInput   = "INPUT"
	ItemTypeVaccine = "VACCINE"
)

// InventoryItem is a stocked good (feed, input, or vaccine).
type InventoryItem struct {
	Meta
	Name      string          `db:"name" json:"name"`
	Type      string          `db:"type" json:"type"`
	Unit      string          `db:"unit" json:"unit"`
	MinLevel  decimal.Decimal `db:"min_level" json:"min_level"`
	ExpiresAt string          `db:"expires_at" json:"expires_at"`
}

func (*InventoryItem) Table() string { return "inventory_items" }

// Movement directions.
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// InventoryMovement is a stock in/out event for an item.
type InventoryMovement struct {
	Meta
	ItemID       string          `db:"item_id" json:"item_id"`
	Date         string          `db:"date" json:"date"`
	Qty          decimal.Decimal `db:"qty" json:"qty"`
	CostTotal    decimal.Decimal `db:"cost_total" json:"cost_total"`
	MovementType string          `db:"movement_type" json:"movement_type"`
	Note         string          `db:"note" json:"note"`
}

func (*InventoryMovement) Table() string { return "inventory_movements" }

// Cattle is a single animal identified by its ear tag.
type Cattle struct {
	Meta
	Tag       string `db:"tag" json:"tag"`
	BirthDate string `db:"birth_date" json:"birth_date"`
	Notes     string `db:"notes" json:"notes"`
}

func (*Cattle) Table() string { return "cattle" }

// Vaccination records a vaccine application to an animal.
type Vaccination struct {
	Meta
	CattleID      string          `db:"cattle_id" json:"cattle_id"`
	VaccineItemID string          `db:"vaccine_item_id" json:"vaccine_item_id"`
	Date          string          `db:"date" json:"date"`
	Dose          string          `db:"dose" json:"dose"`
	Cost          decimal.Decimal `db:"cost" json:"cost"`
	NextDueDate   string          `db:"next_due_date" json:"next_due_date"`
}

func (*Vaccination) Table() string { return "vaccinations" }

// TableSpec describes one syncable table without exposing its concrete type,
// so the store and the sync engine can operate on all tables uniformly.
type TableSpec struct {
	Name string

	// New returns an empty record ready for JSON decoding.
	New func() Record

	// NewList returns a *[]T destination for bulk scanning.
	NewList func() any

	// Records converts a *[]T produced by NewList into []Record.
	Records func(list any) []Record
}

// Decode unmarshals a wire row into a typed record.
func (s TableSpec) Decode(data json.RawMessage) (Record, error) {
	rec := s.New()
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", s.Name, err)
	}
	return rec, nil
}

type recordPtr[T any] interface {
	*T
	Record
}

func spec[T any, PT recordPtr[T]](name string) TableSpec {
	return TableSpec{
		Name: name,
		New: func() Record {
			var v T
			return PT(&v)
		},
		NewList: func() any { return new([]T) },
		Records: func(list any) []Record {
			items := *list.(*[]T)
			out := make([]Record, len(items))
			for i := range items {
				out[i] = PT(&items[i])
			}
			return out
		},
	}
}

// Tables lists every syncable table in a fixed order. Push and pull walk
// this list; anything absent from it never crosses the sync boundary.
var Tables = []TableSpec{
	spec[Category]("categories"),
	spec[Income]("income"),
	spec[Expense]("expense"),
	spec[InventoryItem]("inventory_items"),
	spec[InventoryMovement]("inventory_movements"),
	spec[Cattle]("cattle"),
	spec[Vaccination]("vaccinations"),
}

// TableByName resolves a table spec by its SQL name.
func TableByName(name string) (TableSpec, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableSpec{}, false
}
