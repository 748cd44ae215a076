package models

import "time"

// IntakeID identifies a row of the intake table.
type IntakeID int

// IntakeRecord logs one consumption of a dish.
type IntakeRecord struct {
	ID         IntakeID        `json:"id"`
	DishID     DishID          `json:"dish_id"`
	Servings   float64         `json:"servings"`
	MassG      float64         `json:"mass_g"`
	Nutrients  []NutrientTotal `json:"nutrients"`
	ConsumedAt time.Time       `json:"consumed_at"`
}
