package reporting

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository"
	sheetsrepo "github.com/mamadbah2/pantry/internal/repository/sheets"
	"github.com/mamadbah2/pantry/internal/service/stock"
)

// StatusSource yields batch states for a day.
type StatusSource interface {
	Statuses(ctx context.Context, today models.Date) ([]stock.BatchStatus, error)
}

// IntakeSummary totals what was eaten on one day.
type IntakeSummary struct {
	Date      string                 `json:"date"`
	Entries   int                    `json:"entries"`
	MassG     float64                `json:"mass_g"`
	Nutrients []models.NutrientTotal `json:"nutrients"`
}

// Service builds intake and stock summaries and exports stock snapshots.
type Service struct {
	tables     *repository.Tables
	statuses   StatusSource
	sheets     sheetsrepo.Repository
	stockRange string
	logger     *zap.Logger
}

// NewService wires a reporting service. sheets may be nil when export is disabled.
func NewService(tables *repository.Tables, statuses StatusSource, sheets sheetsrepo.Repository, stockRange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tables:     tables,
		statuses:   statuses,
		sheets:     sheets,
		stockRange: stockRange,
		logger:     logger,
	}
}

// DailyIntakeSummary totals the intake records consumed on day (UTC).
func (s *Service) DailyIntakeSummary(ctx context.Context, day models.Date) (IntakeSummary, error) {
	summary := IntakeSummary{Date: day.String()}

	err := s.tables.View(ctx, func(tx *repository.Tx) error {
		rows, err := tx.Intake()
		if err != nil {
			return err
		}

		totals := make(map[string]float64)
		var order []string
		for _, row := range rows {
			if !models.DateOf(row.ConsumedAt.UTC()).Equal(day.Time) {
				continue
			}
			summary.Entries++
			summary.MassG += row.MassG
			for _, n := range row.Nutrients {
				if _, seen := totals[n.Name]; !seen {
					order = append(order, n.Name)
				}
				totals[n.Name] += n.Amount
			}
		}

		summary.Nutrients = make([]models.NutrientTotal, 0, len(order))
		for _, name := range order {
			summary.Nutrients = append(summary.Nutrients, models.NutrientTotal{Name: name, Amount: totals[name]})
		}
		return nil
	})
	if err != nil {
		return IntakeSummary{}, fmt.Errorf("load intake: %w", err)
	}
	return summary, nil
}

// StockSnapshot returns the state of every batch on today.
func (s *Service) StockSnapshot(ctx context.Context, today models.Date) ([]stock.BatchStatus, error) {
	statuses, err := s.statuses.Statuses(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("load stock statuses: %w", err)
	}
	return statuses, nil
}

// ExportStockSnapshot appends one sheet row per batch. It is a no-op when no
// sheet is configured.
func (s *Service) ExportStockSnapshot(ctx context.Context, today models.Date) (int, error) {
	if s.sheets == nil {
		s.logger.Debug("stock export skipped, sheets disabled")
		return 0, nil
	}

	statuses, err := s.StockSnapshot(ctx, today)
	if err != nil {
		return 0, err
	}

	rows := make([][]interface{}, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, snapshotRow(today, st))
	}

	if err := s.sheets.AppendRows(ctx, s.stockRange, rows); err != nil {
		return 0, fmt.Errorf("export stock snapshot: %w", err)
	}

	s.logger.Info("stock snapshot exported", zap.Int("rows", len(rows)), zap.String("date", today.String()))
	return len(rows), nil
}

// snapshotRow lays out [date, batch_id, ingredient, mode, mass_g, state, key_date].
// key_date is max_end_date for production and expiration_date for storage.
func snapshotRow(today models.Date, st stock.BatchStatus) []interface{} {
	keyDate := ""
	switch {
	case st.Batch.Mode == models.ModeProduction && st.Batch.MaxEndDate != nil:
		keyDate = st.Batch.MaxEndDate.String()
	case st.Batch.ExpirationDate != nil:
		keyDate = st.Batch.ExpirationDate.String()
	}

	name := strings.TrimSpace(st.IngredientName)
	if name == "" {
		name = fmt.Sprintf("#%d", st.Batch.IngredientID)
	}

	return []interface{}{
		today.String(),
		int(st.Batch.ID),
		name,
		string(st.Batch.Mode),
		st.Batch.MassG,
		string(st.State),
		keyDate,
	}
}
