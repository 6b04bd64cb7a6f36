package domain

// DefaultCategory is a category seeded for every new farm.
type DefaultCategory struct {
	Name         string
	IsDirectCost bool
}

// DefaultCategories mirrors the starter set the product ships for Brazilian
// cattle farms. Seeded identically on both sides so a fresh farm looks the
// same before its first sync.
var DefaultCategories = []DefaultCategory{
	{Name: "Ração", IsDirectCost: true},
	{Name: "Vacinas", IsDirectCost: true},
	{Name: "Mão de obra", IsDirectCost: true},
	{Name: "Manutenção", IsDirectCost: true},
	{Name: "Combustível", IsDirectCost: true},
	{Name: "Imprevistos", IsDirectCost: false},
	{Name: "Outros", IsDirectCost: false},
}

// NewDefaultCategories builds seed category records for a farm.
func NewDefaultCategories(farmID string, ts Timestamp) []*Category {
	out := make([]*Category, 0, len(DefaultCategories))
	for _, d := range DefaultCategories {
		c := &Category{Name: d.Name, IsDirectCost: Flag(d.IsDirectCost)}
		c.Init(farmID, ts)
		out = append(out, c)
	}
	return out
}
