package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used by every persisted date.
const DateLayout = "2006-01-02"

// Date is a calendar day persisted as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(value string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", value, err)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day in t's location, expressed in UTC.
func DateOf(t time.Time) Date {
	return Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// BatchID identifies a row of the storaged-ingredient table.
type BatchID int

// StockMode is the temporal model of a batch.
type StockMode string

const (
	ModeProduction StockMode = "production"
	ModeStorage    StockMode = "storage"
)

// StockBatch is one physical batch of stored or in-production material.
// Production batches carry MinEndDate/MaxEndDate, storage batches carry
// ExpirationDate; never both.
type StockBatch struct {
	ID             BatchID      `json:"id"`
	IngredientID   IngredientID `json:"storage-id"`
	MassG          float64      `json:"mass_g"`
	Mode           StockMode    `json:"mode"`
	StartDate      Date         `json:"start_date"`
	ProcessingType string       `json:"processing_type,omitempty"`
	MinEndDate     *Date        `json:"min_end_date,omitempty"`
	MaxEndDate     *Date        `json:"max_end_date,omitempty"`
	ExpirationDate *Date        `json:"expiration_date,omitempty"`
}
