package repository

import (
	"context"
	"errors"
)

// Table names the whole-table snapshots kept by a Store.
type Table string

const (
	TableNutrientCategories Table = "nutrition-category"
	TableIngredients        Table = "ingredient"
	TableDishes             Table = "dish"
	TableBatches            Table = "storaged-ingredient"
	TableIntake             Table = "intake"
	TableCookingMethods     Table = "cooking-methods"
	TableResearch           Table = "research-data"
)

// AllTables lists every table in commit order. Stores save tables one at a
// time, so the intake log precedes the batch table: a failed commit can leave
// an intake record without its deduction, never a deduction without its record.
var AllTables = []Table{
	TableResearch,
	TableCookingMethods,
	TableNutrientCategories,
	TableIngredients,
	TableDishes,
	TableIntake,
	TableBatches,
}

// ErrReadOnly is returned when a table is modified inside View.
var ErrReadOnly = errors.New("read-only transaction")

// Store persists each table as one JSON array. Load returns nil data for a
// table that has never been saved.
type Store interface {
	Load(ctx context.Context, table Table) ([]byte, error)
	Save(ctx context.Context, table Table, data []byte) error
}
