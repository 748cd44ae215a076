package models

// IngredientID identifies a row of the ingredient table.
type IngredientID int

// ProductionTime describes whether an ingredient can be grown or produced in
// house and how many days it takes.
type ProductionTime struct {
	Producible bool `json:"producible"`
	MinDays    *int `json:"min,omitempty"`
	MaxDays    *int `json:"max,omitempty"`
}

// Ingredient is a raw material with a fixed per-gram nutrient profile.
type Ingredient struct {
	ID             IngredientID     `json:"id"`
	Name           LocalizedText    `json:"name"`
	ResearchIDs    []int            `json:"research_ids"`
	Nutrition      []NutrientAmount `json:"nutrition"`
	ProductionTime ProductionTime   `json:"production_time"`
}
