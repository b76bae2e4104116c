package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"linketron/internal/logging"
)

const (
	// Ежедневно в 21:00 UTC
	DailyReportSpec = "0 21 * * *"
	// Каждый час
	SweepSpec = "0 * * * *"
)

// Job is a scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler управляет запланированными задачами
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancel     context.CancelFunc
	reportFunc Job
	sweepFunc  Job
	logger     *zap.Logger
}

// New создает новый планировщик
func New(logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		ctx:    ctx,
		cancel: cancel,
		logger: logging.OrNop(logger),
	}
}

// SetReportFunction устанавливает функцию для генерации отчетов
func (s *Scheduler) SetReportFunction(f Job) { s.reportFunc = f }

// SetSweepFunction sets the hourly idle-session cleanup.
func (s *Scheduler) SetSweepFunction(f Job) { s.sweepFunc = f }

// Start запускает планировщик
func (s *Scheduler) Start() error {
	if s.reportFunc == nil && s.sweepFunc == nil {
		return errors.New("scheduler has no jobs")
	}
	if s.reportFunc != nil {
		if _, err := s.cron.AddFunc(DailyReportSpec, s.wrap("daily_report", s.reportFunc)); err != nil {
			return err
		}
	} else {
		s.logger.Warn("report function not set, daily reports disabled")
	}
	if s.sweepFunc != nil {
		if _, err := s.cron.AddFunc(SweepSpec, s.wrap("session_sweep", s.sweepFunc)); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		s.logger.Info("job triggered", zap.String("job", name))
		if err := job(s.ctx); err != nil {
			s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

// Stop останавливает планировщик
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// IsRunning проверяет, запущен ли планировщик
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
