package models

import "strings"

// CaloriesCategory is the registry name of the energy category.
const CaloriesCategory = "Calories"

// CaloriesTotalLabel is how the energy category is reported on dishes.
const CaloriesTotalLabel = "Calories (Total)"

// NutrientCategory is a recognized nutrient name with its display unit.
type NutrientCategory struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// NutrientAmount expresses a nutrient per gram of the owning ingredient or dish.
type NutrientAmount struct {
	Name              string  `json:"name"`
	AmountPerUnitMass float64 `json:"amount_per_unit_mass"`
}

// NutrientTotal is an absolute nutrient amount, e.g. for one logged intake.
type NutrientTotal struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// LocalizedText maps language codes ("kor", "eng", ...) to text.
type LocalizedText map[string]string

// Display returns the preferred translation, falling back to any non-empty value.
func (t LocalizedText) Display(preferred ...string) string {
	for _, lang := range preferred {
		if v := strings.TrimSpace(t[lang]); v != "" {
			return v
		}
	}
	for _, lang := range []string{"eng", "kor"} {
		if v := strings.TrimSpace(t[lang]); v != "" {
			return v
		}
	}
	for _, v := range t {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
