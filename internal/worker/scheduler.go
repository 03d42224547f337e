package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/audit"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Scheduler owns the timer-driven maintenance work: draining the audit
// buffer, auto-closing resolved tickets, and purging old activity records.
// The jobs themselves are idempotent service calls; the scheduler only
// supplies cadence.
type Scheduler struct {
	cron          *cron.Cron
	cfg           config.SchedulerConfig
	retentionDays int
	recorder      *audit.Recorder
	tickets       *service.TicketService
	logger        *zap.Logger
}

// NewScheduler builds a scheduler. Call Start to begin running jobs.
func NewScheduler(cfg config.SchedulerConfig, retentionDays int, recorder *audit.Recorder, tickets *service.TicketService, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		cfg:           cfg,
		retentionDays: retentionDays,
		recorder:      recorder,
		tickets:       tickets,
		logger:        logger,
	}
}

// Start registers the jobs and launches the cron loop. It is a no-op when
// the scheduler is disabled in config.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.AuditFlushSpec, s.flushAudit); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.AutoCloseSpec, s.autoCloseTickets); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.RetentionSpec, s.purgeActivity); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("audit_flush", s.cfg.AuditFlushSpec),
		zap.String("auto_close", s.cfg.AutoCloseSpec),
		zap.String("retention", s.cfg.RetentionSpec))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) flushAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.recorder.Flush(ctx)
}

func (s *Scheduler) autoCloseTickets() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.tickets.AutoCloseResolved(ctx, s.cfg.AutoCloseAfter)
	if err != nil {
		s.logger.Error("ticket auto-close failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("tickets auto-closed", zap.Int("count", count))
	}
}

func (s *Scheduler) purgeActivity() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.recorder.CleanOldRecords(ctx, s.retentionDays)
	if err != nil {
		s.logger.Error("activity purge failed", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("activity records purged", zap.Int64("count", count))
	}
}
