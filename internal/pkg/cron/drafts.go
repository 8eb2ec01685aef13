package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
)

type DraftJobs struct {
	drafts   correction.DraftRepository
	schedule string
	now      func() time.Time
}

func NewDraftJobs(drafts correction.DraftRepository, schedule string) *DraftJobs {
	return &DraftJobs{
		drafts:   drafts,
		schedule: schedule,
		now:      time.Now,
	}
}

func (j *DraftJobs) RegisterJobs(scheduler *Scheduler) error {
	return scheduler.AddJob("purge_expired_drafts", j.schedule, j.PurgeExpiredDrafts)
}

// PurgeExpiredDrafts drops drafts nobody has touched within the store's TTL.
func (j *DraftJobs) PurgeExpiredDrafts(ctx context.Context) error {
	purged, err := j.drafts.PurgeExpired(ctx, j.now())
	if err != nil {
		return fmt.Errorf("failed to purge expired drafts: %w", err)
	}

	if purged > 0 {
		slog.Info("Cron: Purged expired drafts", "count", purged)
	}
	return nil
}
