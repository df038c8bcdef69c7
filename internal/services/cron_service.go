package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron        *cron.Cron
	segmentSync *SegmentSyncService
	logger      *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(segmentSync *SegmentSyncService, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:        cron.New(),
		segmentSync: segmentSync,
		logger:      logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	// Reconcile segment statuses against execution collaborators every
	// minute. Streams pick the changes up on their next poll tick.
	_, err := s.cron.AddFunc("* * * * *", s.segmentSyncJob)
	if err != nil {
		return fmt.Errorf("failed to schedule segment sync job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Cron service started - segment execution sync enabled")
	return nil
}

// Stop stops all cron jobs, waiting for a running job to finish.
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// RunSegmentSyncNow runs the sync job immediately (for admin trigger).
func (s *CronService) RunSegmentSyncNow() {
	s.segmentSyncJob()
}

func (s *CronService) segmentSyncJob() {
	start := time.Now()

	changed, err := s.segmentSync.SyncActivePlans()
	if err != nil {
		s.logger.WithError(err).Error("Segment sync job failed")
		return
	}

	if changed > 0 {
		s.logger.WithFields(logrus.Fields{
			"segments_changed": changed,
			"duration_ms":      time.Since(start).Milliseconds(),
		}).Info("Segment sync job completed")
	}
}
