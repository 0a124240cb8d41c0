package catalog

// Category describes one market for a kind of tradable credit. The catalog
// is static configuration: it is compiled in and never part of the mutable
// exchange state.
type Category struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	DefaultPrice int64  `json:"default_price"` // minor units per unit
	Unit         string `json:"unit"`
}

var categories = []Category{
	{Code: "carbon", Name: "Carbon Sequestration Credits", DefaultPrice: 1500, Unit: "tCO2e"},
	{Code: "water", Name: "Watershed Stewardship Credits", DefaultPrice: 800, Unit: "ML"},
	{Code: "biodiversity", Name: "Biodiversity Habitat Credits", DefaultPrice: 2500, Unit: "habitat-ha"},
	{Code: "soil", Name: "Soil Regeneration Credits", DefaultPrice: 1200, Unit: "ha-year"},
	{Code: "energy", Name: "Renewable Energy Credits", DefaultPrice: 500, Unit: "MWh"},
}

var byCode = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.Code] = c
	}
	return m
}()

// Lookup returns the category for a code. Unknown codes are rejected at the
// system boundary so invalid categories never reach the exchange core.
func Lookup(code string) (Category, bool) {
	c, ok := byCode[code]
	return c, ok
}

// All returns the catalog in its configured order.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}
