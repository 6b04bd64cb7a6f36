package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolabs/pasture/internal/domain"
)

func TestValidateUUID(t *testing.T) {
	assert.Nil(t, ValidateUUID("id", "2e9b2c76-8f65-4f10-9c3d-1a2b3c4d5e6f"))

	err := ValidateUUID("id", "not-a-uuid")
	require.NotNil(t, err)
	assert.Equal(t, "id", err.Field)
}

func TestValidateDate(t *testing.T) {
	assert.Nil(t, ValidateDate("date", "2024-03-15"))
	assert.Nil(t, ValidateDate("date", ""), "optional dates pass when empty")
	assert.NotNil(t, ValidateDate("date", "15/03/2024"))
	assert.NotNil(t, ValidateDate("date", "2024-13-99"))
}

func TestValidateEnum(t *testing.T) {
	assert.Nil(t, ValidateEnum("type", "FEED", "FEED", "INPUT", "VACCINE"))
	assert.NotNil(t, ValidateEnum("type", "FUEL", "FEED", "INPUT", "VACCINE"))
}

func TestCollector(t *testing.T) {
	var c Collector
	assert.False(t, c.HasErrors())

	c.Add(nil)
	assert.False(t, c.HasErrors(), "nil results are not errors")

	c.Add(&ValidationError{Field: "name", Message: "is required"})
	c.Add(&ValidationError{Field: "date", Message: "bad"})
	require.True(t, c.HasErrors())
	assert.Len(t, c.Errors(), 2)
}

func TestValidateRecordCommonRules(t *testing.T) {
	c := &domain.Category{Name: "Ração"}
	c.Init("farm-1", domain.Now())
	assert.Empty(t, ValidateRecord(c))

	t.Run("bad id", func(t *testing.T) {
		bad := &domain.Category{Name: "Ração"}
		bad.Init("farm-1", domain.Now())
		bad.ID = "row-1"
		errs := ValidateRecord(bad)
		require.NotEmpty(t, errs)
		assert.Equal(t, "id", errs[0].Field)
	})

	t.Run("missing farm", func(t *testing.T) {
		bad := &domain.Category{Name: "Ração"}
		bad.Init("", domain.Now())
		errs := ValidateRecord(bad)
		require.NotEmpty(t, errs)
		assert.Equal(t, "farm_id", errs[0].Field)
	})

	t.Run("missing updated_at", func(t *testing.T) {
		bad := &domain.Category{Name: "Ração"}
		bad.Init("farm-1", domain.Now())
		bad.UpdatedAt = domain.Timestamp{}
		errs := ValidateRecord(bad)
		require.NotEmpty(t, errs)
		assert.Equal(t, "updated_at", errs[0].Field)
	})
}

func TestValidateRecordPerTable(t *testing.T) {
	ts := domain.Now()

	tests := []struct {
		name      string
		rec       domain.Record
		wantField string
	}{
		{
			name: "category without name",
			rec: func() domain.Record {
				r := &domain.Category{}
				r.Init("farm-1", ts)
				return r
			}(),
			wantField: "name",
		},
		{
			name: "expense with bad date",
			rec: func() domain.Record {
				r := &domain.Expense{Date: "15-03-2024"}
				r.Init("farm-1", ts)
				return r
			}(),
			wantField: "date",
		},
		{
			name: "item with unknown type",
			rec: func() domain.Record {
				r := &domain.InventoryItem{Name: "Sal mineral", Type: "MINERAL", Unit: "kg"}
				r.Init("farm-1", ts)
				return r
			}(),
			wantField: "type",
		},
		{
			name: "movement with unknown direction",
			rec: func() domain.Record {
				r := &domain.InventoryMovement{ItemID: "item-1", MovementType: "SIDEWAYS"}
				r.Init("farm-1", ts)
				return r
			}(),
			wantField: "movement_type",
		},
		{
			name: "cattle without tag",
			rec: func() domain.Record {
				r := &domain.Cattle{}
				r.Init("farm-1", ts)
				return r
			}(),
			wantField: "tag",
		},
		{
			name: "vaccination without cattle",
			rec: func() domain.Record {
				r := &domain.Vaccination{VaccineItemID: "item-1", Date: "2024-03-15"}
				r.Init("farm-1", ts)
				return r
			}(),
			wantField: "cattle_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRecord(tt.rec)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantField, errs[0].Field)
		})
	}
}
