package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Stored-result collections, swept by the retention job
const (
	CollectionAnalyses = "analyses"
	CollectionReports  = "reports"
)

var analysisCollections = []string{CollectionAnalyses, CollectionReports}

// MaintenanceService runs background housekeeping: expired-session
// sweeps and stored-analysis retention
type MaintenanceService struct {
	auth      *AuthManager
	store     DocumentStore
	retention RetentionConfig
	cron      *cron.Cron
	logger    *Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(auth *AuthManager, store DocumentStore, retention RetentionConfig) *MaintenanceService {
	return &MaintenanceService{
		auth:      auth,
		store:     store,
		retention: retention,
		cron:      cron.New(),
		logger:    GetLogger(),
	}
}

// Start registers the housekeeping jobs and starts the scheduler
func (m *MaintenanceService) Start() error {
	if _, err := m.cron.AddFunc(m.retention.SessionSweep, m.sweepSessions); err != nil {
		return fmt.Errorf("invalid session sweep schedule: %w", err)
	}
	if _, err := m.cron.AddFunc("@daily", m.sweepAnalyses); err != nil {
		return fmt.Errorf("failed to schedule analysis retention: %w", err)
	}

	m.cron.Start()
	m.logger.Info("Maintenance scheduler started",
		String("session_sweep", m.retention.SessionSweep),
		Int("analysis_retention_days", m.retention.AnalysisDays))

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (m *MaintenanceService) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.logger.Info("Maintenance scheduler stopped")
}

// sweepSessions drops expired sessions
func (m *MaintenanceService) sweepSessions() {
	removed := m.auth.SweepExpiredSessions()
	if removed > 0 {
		m.logger.Info("Swept expired sessions", Int("removed", removed))
	}
}

// sweepAnalyses deletes stored analysis results past the retention window
func (m *MaintenanceService) sweepAnalyses() {
	if m.retention.AnalysisDays <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -m.retention.AnalysisDays)
	for _, collection := range analysisCollections {
		removed, err := m.store.DeleteOlderThan(ctx, collection, cutoff)
		if err != nil {
			m.logger.Error("Analysis retention sweep failed", err, String("collection", collection))
			continue
		}
		if removed > 0 {
			m.logger.Info("Swept stored analyses",
				String("collection", collection),
				Int("removed", int(removed)))
		}
	}
}
