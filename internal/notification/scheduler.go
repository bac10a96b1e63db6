package notification

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupJob periodically deletes notifications older than the retention age
type CleanupJob struct {
	service      Service
	interval     time.Duration
	retentionAge time.Duration
	log          logrus.FieldLogger

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewCleanupJob(service Service, interval, retentionAge time.Duration, log logrus.FieldLogger) *CleanupJob {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if retentionAge <= 0 {
		retentionAge = 30 * 24 * time.Hour
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &CleanupJob{
		service:      service,
		interval:     interval,
		retentionAge: retentionAge,
		log:          log.WithField("component", "notification_cleanup"),
		stopCh:       make(chan struct{}),
	}
}

// Start runs one cleanup immediately and then one per interval until ctx is done or Stop is called
func (j *CleanupJob) Start(ctx context.Context) {
	j.log.WithFields(logrus.Fields{
		"interval":  j.interval,
		"retention": j.retentionAge,
	}).Info("starting notification cleanup job")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup(ctx)

	for {
		select {
		case <-ticker.C:
			j.cleanup(ctx)
		case <-j.stopCh:
			j.log.Info("stopping notification cleanup job")
			return
		case <-ctx.Done():
			j.log.Info("context cancelled, stopping notification cleanup job")
			return
		}
	}
}

func (j *CleanupJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

func (j *CleanupJob) cleanup(ctx context.Context) {
	start := time.Now()
	removed, err := j.service.CleanupOldNotifications(ctx, j.retentionAge)
	if err != nil {
		j.log.WithError(err).Error("notification cleanup failed")
		return
	}
	j.log.WithFields(logrus.Fields{
		"removed":  removed,
		"duration": time.Since(start),
	}).Info("notification cleanup completed")
}
