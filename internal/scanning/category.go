package scanning

import "strings"

// Category is a line-item spending category
type Category string

const (
	CategoryOfficeSupplies Category = "Office Supplies"
	CategoryFoodBeverages  Category = "Food & Beverages"
	CategoryTransportation Category = "Transportation"
	CategoryAccommodation  Category = "Accommodation"
	CategoryOther          Category = "Other"
)

var allCategories = []Category{
	CategoryOfficeSupplies,
	CategoryFoodBeverages,
	CategoryTransportation,
	CategoryAccommodation,
	CategoryOther,
}

// words the model tends to answer with instead of the exact category names
var categorySynonyms = map[string]Category{
	"office supply":      CategoryOfficeSupplies,
	"stationery":         CategoryOfficeSupplies,
	"equipment":          CategoryOfficeSupplies,
	"food & beverage":    CategoryFoodBeverages,
	"food and beverage":  CategoryFoodBeverages,
	"food and beverages": CategoryFoodBeverages,
	"food":               CategoryFoodBeverages,
	"beverage":           CategoryFoodBeverages,
	"beverages":          CategoryFoodBeverages,
	"groceries":          CategoryFoodBeverages,
	"meals":              CategoryFoodBeverages,
	"travel":             CategoryTransportation,
	"transport":          CategoryTransportation,
	"taxi":               CategoryTransportation,
	"fuel":               CategoryTransportation,
	"hotel":              CategoryAccommodation,
	"lodging":            CategoryAccommodation,
}

// CategoryNames returns the allowed category names in prompt order
func CategoryNames() []string {
	names := make([]string, len(allCategories))
	for i, c := range allCategories {
		names[i] = string(c)
	}
	return names
}

// CanonicalCategory maps free text onto the closed category set; anything unrecognized is Other
func CanonicalCategory(input string) Category {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return CategoryOther
	}
	for _, c := range allCategories {
		if normalized == strings.ToLower(string(c)) {
			return c
		}
	}
	if c, ok := categorySynonyms[normalized]; ok {
		return c
	}
	return CategoryOther
}
