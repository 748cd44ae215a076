package stock

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// BatchState is the lifecycle position of a batch on a given day.
type BatchState string

const (
	// StatePending: production not yet past min_end_date, or start_date in the future.
	StatePending BatchState = "pending"
	// StateReady: usable material.
	StateReady BatchState = "ready"
	// StateExpired: storage batch past its expiration_date.
	StateExpired BatchState = "expired"
	// StateExhausted: no mass left, whatever the mode.
	StateExhausted BatchState = "exhausted"
)

// StateOf classifies b on day today.
func StateOf(b models.StockBatch, today models.Date) BatchState {
	if b.MassG <= 0 {
		return StateExhausted
	}
	if today.Before(b.StartDate.Time) {
		return StatePending
	}

	switch b.Mode {
	case models.ModeProduction:
		if b.MinEndDate != nil && today.Before(b.MinEndDate.Time) {
			return StatePending
		}
		return StateReady
	default:
		if b.ExpirationDate != nil && today.After(b.ExpirationDate.Time) {
			return StateExpired
		}
		return StateReady
	}
}

// Gauge holds progress bar geometry in percent of the bar span.
//
// For production batches the bar runs from min(start, today) to max_end_date:
// Grey covers the wait before a future start, Green the elapsed growth and
// Expected the min..max harvest window. Storage batches only report
// ShelfLifeUsed, the elapsed share of start..expiration.
type Gauge struct {
	GreyWidth     float64 `json:"grey_width,omitempty"`
	GreenLeft     float64 `json:"green_left,omitempty"`
	GreenWidth    float64 `json:"green_width,omitempty"`
	ExpectedLeft  float64 `json:"expected_left,omitempty"`
	ExpectedWidth float64 `json:"expected_width,omitempty"`
	TodayPos      float64 `json:"today_pos,omitempty"`
	StartPos      float64 `json:"start_pos,omitempty"`
	ShelfLifeUsed float64 `json:"shelf_life_used,omitempty"`
}

// GaugeFor computes the progress gauge of b. It reports false when the batch
// has no usable time span.
func GaugeFor(b models.StockBatch, today models.Date) (Gauge, bool) {
	if b.Mode == models.ModeProduction {
		return productionGauge(b, today)
	}
	return storageGauge(b, today)
}

func productionGauge(b models.StockBatch, today models.Date) (Gauge, bool) {
	if b.MinEndDate == nil || b.MaxEndDate == nil {
		return Gauge{}, false
	}
	start, minEnd, maxEnd := b.StartDate, *b.MinEndDate, *b.MaxEndDate

	barStart := start
	if today.Before(start.Time) {
		barStart = today
	}
	span := barStart.DaysUntil(maxEnd)
	if span <= 0 {
		return Gauge{}, false
	}
	pct := func(days int) float64 {
		return clamp(float64(days)/float64(span)*100, 0, 100)
	}

	startOffset := barStart.DaysUntil(start)
	todayOffset := barStart.DaysUntil(today)
	minOffset := barStart.DaysUntil(minEnd)
	maxOffset := barStart.DaysUntil(maxEnd)

	var g Gauge
	if start.After(today.Time) {
		g.GreyWidth = pct(startOffset - todayOffset)
	}
	if startOffset >= 0 {
		g.GreenLeft = pct(startOffset)
	}
	if !today.Before(start.Time) {
		current := today
		if maxEnd.Before(today.Time) {
			current = maxEnd
		}
		g.GreenWidth = pct(max(0, barStart.DaysUntil(current)-startOffset))
	}
	g.ExpectedLeft = pct(minOffset)
	g.ExpectedWidth = pct(maxOffset - minOffset)
	g.TodayPos = pct(todayOffset)
	g.StartPos = pct(startOffset)
	return g, true
}

func storageGauge(b models.StockBatch, today models.Date) (Gauge, bool) {
	if b.ExpirationDate == nil {
		return Gauge{}, false
	}
	total := b.StartDate.DaysUntil(*b.ExpirationDate)
	if total <= 0 {
		return Gauge{}, false
	}

	current := today
	if current.After(b.ExpirationDate.Time) {
		current = *b.ExpirationDate
	}
	if current.Before(b.StartDate.Time) {
		current = b.StartDate
	}
	return Gauge{ShelfLifeUsed: float64(b.StartDate.DaysUntil(current)) / float64(total) * 100}, true
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

var (
	shelfYears  = regexp.MustCompile(`(\d+)\s*years?`)
	shelfMonths = regexp.MustCompile(`(\d+)\s*months?`)
	shelfDays   = regexp.MustCompile(`(\d+)\s*days?`)
)

// ApplyShelfLife adds a shelf life such as "1 year 2 months 10 days" to start.
func ApplyShelfLife(start models.Date, shelfLife string) (models.Date, error) {
	years, okY := matchInt(shelfYears, shelfLife)
	months, okM := matchInt(shelfMonths, shelfLife)
	days, okD := matchInt(shelfDays, shelfLife)
	if !okY && !okM && !okD {
		return models.Date{}, fmt.Errorf("%w: unrecognized shelf life %q", ErrInvalidDate, shelfLife)
	}
	return models.Date{Time: start.AddDate(years, months, days)}, nil
}

func matchInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
