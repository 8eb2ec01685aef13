package correction

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
	"golang.org/x/sync/errgroup"
)

// snapshot fetches today's record, this month's history and this month's
// stats in parallel.
func (s *CorrectionServiceImpl) snapshot(ctx context.Context, employeeID string) (attendance.Snapshot, error) {
	return s.fetchMonth(ctx, employeeID, s.today(), true)
}

// fetchMonth loads today's record and the history of now's month. The
// monthly stats are fetched alongside only when withStats is set.
func (s *CorrectionServiceImpl) fetchMonth(ctx context.Context, employeeID string, now time.Time, withStats bool) (attendance.Snapshot, error) {
	first, last := monthRange(now)

	var snap attendance.Snapshot
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rec, err := s.client.Today(gCtx, employeeID)
		if err != nil {
			return upstreamError("failed to get today's attendance", err)
		}
		snap.Today = rec
		return nil
	})

	g.Go(func() error {
		records, err := s.client.History(gCtx, employeeID, first.Format(validator.DateLayout), last.Format(validator.DateLayout))
		if err != nil {
			return upstreamError("failed to get attendance history", err)
		}
		snap.History = records
		return nil
	})

	if withStats {
		g.Go(func() error {
			st, err := s.client.MonthlyStats(gCtx, employeeID, now.Format(validator.MonthLayout))
			if err != nil {
				return upstreamError("failed to get attendance stats", err)
			}
			snap.Stats = st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return attendance.Snapshot{}, err
	}

	if snap.History == nil {
		snap.History = []attendance.Record{}
	}
	return snap, nil
}
