package scheduler

import (
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/causelist-api/models"
)

const (
	rolloverSpec = "0 0 * * *"
	sweepSpec    = "*/15 * * * *"
)

// Docket is the part of the hearing registry the scheduled jobs touch
type Docket interface {
	RolloverDay(now time.Time)
	ComputeDerivedAlerts() []models.Alert
}

// Scheduler handles periodic background jobs for the cause list
type Scheduler struct {
	cron   *cron.Cron
	docket Docket
	loc    *time.Location
	now    func() time.Time
}

// NewScheduler creates a new scheduler instance. Days roll over at midnight in loc.
func NewScheduler(docket Docket, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		docket: docket,
		loc:    loc,
		now:    time.Now,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	// Reset the day's disposal counter at midnight, and the month's on the 1st
	if _, err := s.cron.AddFunc(rolloverSpec, s.rolloverDay); err != nil {
		zap.S().Errorw("failed to register rollover job", "error", err)
		return err
	}

	// Report hearings that passed their readiness deadline undeclared
	if _, err := s.cron.AddFunc(sweepSpec, func() { s.sweepOverdue() }); err != nil {
		zap.S().Errorw("failed to register overdue sweep job", "error", err)
		return err
	}

	s.cron.Start()
	zap.S().Infow("Cause list scheduler started", "location", s.loc.String())
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Cause list scheduler stopped")
}

func (s *Scheduler) rolloverDay() {
	now := s.now().In(s.loc)
	s.docket.RolloverDay(now)
	zap.S().Infow("Daily statistics rolled over",
		"date", now.Format("2006-01-02"),
		"monthReset", now.Day() == 1)
}

// sweepOverdue returns the number of overdue hearings found
func (s *Scheduler) sweepOverdue() int {
	var cases []string
	for _, a := range s.docket.ComputeDerivedAlerts() {
		if a.Type == models.AlertSystem && strings.HasPrefix(a.ID, "overdue-") {
			cases = append(cases, strings.TrimPrefix(a.ID, "overdue-"))
		}
	}
	if len(cases) == 0 {
		zap.S().Debug("Overdue sweep found nothing")
		return 0
	}
	zap.S().Warnw("Hearings past their readiness deadline",
		"count", len(cases),
		"hearingIds", cases)
	return len(cases)
}
