package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
)

// Recomputer refreshes derived dish nutrition.
type Recomputer interface {
	RecomputeAllDishes(ctx context.Context) error
}

// StockExporter pushes a stock snapshot somewhere durable.
type StockExporter interface {
	ExportStockSnapshot(ctx context.Context, today models.Date) (int, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	recomputer Recomputer
	exporter   StockExporter
	cfg        config.SchedulerConfig
	location   *time.Location
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance running in cfg.Timezone.
func NewScheduler(cfg config.SchedulerConfig, recomputer Recomputer, exporter StockExporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(location)),
		recomputer: recomputer,
		exporter:   exporter,
		cfg:        cfg,
		location:   location,
		logger:     logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.RecomputeCron, s.recomputeDishes); err != nil {
		return fmt.Errorf("schedule dish recompute %q: %w", s.cfg.RecomputeCron, err)
	}
	if s.exporter != nil {
		if _, err := s.cron.AddFunc(s.cfg.StockReportCron, s.exportStock); err != nil {
			return fmt.Errorf("schedule stock export %q: %w", s.cfg.StockReportCron, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) recomputeDishes() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.recomputer.RecomputeAllDishes(ctx); err != nil {
		s.logger.Error("scheduled dish recompute failed", zap.Error(err))
	}
}

func (s *Scheduler) exportStock() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	today := models.DateOf(time.Now().In(s.location))
	rows, err := s.exporter.ExportStockSnapshot(ctx, today)
	if err != nil {
		s.logger.Error("scheduled stock export failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled stock export done", zap.Int("rows", rows))
}
