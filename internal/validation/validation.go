// Package validation checks domain rules on records before they are written.
// Validation runs on the server's push path so a malformed row from one
// device fails individually instead of poisoning the whole batch.
package validation

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agrolabs/pasture/internal/domain"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateUUID returns an error if the value is not a valid UUID string.
func ValidateUUID(field, value string) *ValidationError {
	if _, err := uuid.Parse(value); err != nil {
		return &ValidationError{Field: field, Message: "must be a valid UUID"}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty.
func ValidateRequired(field, value string) *ValidationError {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateDate returns an error if a non-empty value is not YYYY-MM-DD.
func ValidateDate(field, value string) *ValidationError {
	if value == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return &ValidationError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	}
	return nil
}

// ValidateEnum returns an error if the value is not one of allowed.
func ValidateEnum(field, value string, allowed ...string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of %v", allowed)}
}

// ValidateRecord applies the common and per-table rules to a record.
func ValidateRecord(rec domain.Record) []ValidationError {
	var c Collector

	c.Add(ValidateUUID("id", rec.RecordID()))
	c.Add(ValidateRequired("farm_id", rec.Farm()))
	if rec.Updated().IsZero() {
		c.Add(&ValidationError{Field: "updated_at", Message: "is required"})
	}

	switch r := rec.(type) {
	case *domain.Category:
		c.Add(ValidateRequired("name", r.Name))
	case *domain.Income:
		c.Add(ValidateDate("date", r.Date))
	case *domain.Expense:
		c.Add(ValidateDate("date", r.Date))
	case *domain.InventoryItem:
		c.Add(ValidateRequired("name", r.Name))
		c.Add(ValidateEnum("type", r.Type,
			domain.ItemTypeFeed, domain.ItemTypeInput, domain.ItemTypeVaccine))
		c.Add(ValidateRequired("unit", r.Unit))
	case *domain.InventoryMovement:
		c.Add(ValidateRequired("item_id", r.ItemID))
		c.Add(ValidateEnum("movement_type", r.MovementType,
			domain.MovementIn, domain.MovementOut))
	case *domain.Cattle:
		c.Add(ValidateRequired("tag", r.Tag))
		c.Add(ValidateDate("birth_date", r.BirthDate))
	case *domain.Vaccination:
		c.Add(ValidateRequired("cattle_id", r.CattleID))
		c.Add(ValidateRequired("vaccine_item_id", r.VaccineItemID))
		c.Add(ValidateDate("date", r.Date))
		c.Add(ValidateDate("next_due_date", r.NextDueDate))
	}

	return c.Errors()
}
