package correction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const (
	defaultRequestTimeout = 10 * time.Second

	// callsPerDate is the most upstream calls one date can take on submit:
	// lookup, clock-in, clock-out, re-query and regularize.
	callsPerDate = 5

	// submitLockMargin keeps the submit lock alive past the run budget so the
	// lock is never released while the run can still be writing.
	submitLockMargin = 30 * time.Second
)

type CorrectionServiceImpl struct {
	drafts      correction.DraftRepository
	submissions correction.SubmissionRepository
	client      attendance.Client
	submitter   *Submitter
	hub         *sse.Hub

	loc            *time.Location
	now            func() time.Time
	requestTimeout time.Duration
}

func NewCorrectionService(
	drafts correction.DraftRepository,
	submissions correction.SubmissionRepository,
	client attendance.Client,
	hub *sse.Hub,
	loc *time.Location,
	requestTimeout time.Duration,
) correction.CorrectionService {
	if loc == nil {
		loc = time.Local
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	return &CorrectionServiceImpl{
		drafts:        drafts,
		submissions:   submissions,
		client:        client,
		submitter:     NewSubmitter(client),
		hub:           hub,
		loc:            loc,
		now:            time.Now,
		requestTimeout: requestTimeout,
	}
}

// getEmployeeID extracts employee_id from JWT claims
func (s *CorrectionServiceImpl) getEmployeeID(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", correction.ErrEmployeeIDRequired
	}
	return employeeID, nil
}

func (s *CorrectionServiceImpl) today() time.Time {
	return s.now().In(s.loc)
}

// update runs fn against the employee's draft and stamps the modification time.
func (s *CorrectionServiceImpl) update(ctx context.Context, fn func(d *correction.Draft) error) (correction.Draft, error) {
	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.Draft{}, err
	}

	draft, err := s.drafts.Update(ctx, employeeID, func(d *correction.Draft) error {
		if err := fn(d); err != nil {
			return err
		}
		d.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return correction.Draft{}, err
	}
	return draft, nil
}

// GetDraft implements correction.CorrectionService.
func (s *CorrectionServiceImpl) GetDraft(ctx context.Context) (correction.Draft, error) {
	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.Draft{}, err
	}

	draft, err := s.drafts.Get(ctx, employeeID)
	if err != nil {
		return correction.Draft{}, fmt.Errorf("failed to get draft: %w", err)
	}
	return draft, nil
}

// SetDates implements correction.CorrectionService.
func (s *CorrectionServiceImpl) SetDates(ctx context.Context, req correction.SetDatesRequest) (correction.Draft, error) {
	if err := req.Validate(); err != nil {
		return correction.Draft{}, err
	}

	return s.update(ctx, func(d *correction.Draft) error {
		d.SetDates(req.Dates)
		return nil
	})
}

// SetBroadcastField implements correction.CorrectionService.
func (s *CorrectionServiceImpl) SetBroadcastField(ctx context.Context, req correction.SetFieldRequest) (correction.Draft, error) {
	if err := req.Validate(); err != nil {
		return correction.Draft{}, err
	}

	return s.update(ctx, func(d *correction.Draft) error {
		return d.SetBroadcastField(correction.Field(req.Field), req.Value)
	})
}

// SetEntryField implements correction.CorrectionService.
func (s *CorrectionServiceImpl) SetEntryField(ctx context.Context, req correction.SetEntryFieldRequest) (correction.Draft, error) {
	if err := req.Validate(); err != nil {
		return correction.Draft{}, err
	}

	return s.update(ctx, func(d *correction.Draft) error {
		return d.SetEntryField(req.Date, correction.Field(req.Field), req.Value)
	})
}

// ApplyBroadcastToAll implements correction.CorrectionService.
func (s *CorrectionServiceImpl) ApplyBroadcastToAll(ctx context.Context) (correction.Draft, error) {
	return s.update(ctx, func(d *correction.Draft) error {
		d.ApplyBroadcastToAll()
		return nil
	})
}

// Validate implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Validate(ctx context.Context) (correction.ValidateResponse, error) {
	var valid bool
	draft, err := s.update(ctx, func(d *correction.Draft) error {
		valid = d.Validate()
		return nil
	})
	if err != nil {
		return correction.ValidateResponse{}, err
	}

	return correction.ValidateResponse{Valid: valid, Errors: draft.Errors}, nil
}

// Reset implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Reset(ctx context.Context) (correction.Draft, error) {
	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.Draft{}, err
	}

	if err := s.drafts.Delete(ctx, employeeID); err != nil {
		return correction.Draft{}, fmt.Errorf("failed to reset draft: %w", err)
	}
	return correction.NewDraft(employeeID), nil
}

// Submit implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Submit(ctx context.Context) (correction.SubmitResponse, error) {
	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.SubmitResponse{}, err
	}

	// Validation runs before any network call. An invalid draft keeps its
	// values and gets the fresh error map stored.
	var errs validator.ValidationErrors
	draft, err := s.drafts.Update(ctx, employeeID, func(d *correction.Draft) error {
		errs = correction.ValidateForm(d.Form)
		d.Errors = errs.ToMap()
		return nil
	})
	if err != nil {
		return correction.SubmitResponse{}, fmt.Errorf("failed to validate draft: %w", err)
	}
	if len(errs) > 0 {
		return correction.SubmitResponse{}, errs
	}

	budget := s.submitBudget(len(draft.Form.Dates))
	owner := uuid.NewString()
	locked, err := s.drafts.TryLockSubmit(ctx, employeeID, owner, budget+submitLockMargin)
	if err != nil {
		return correction.SubmitResponse{}, fmt.Errorf("failed to acquire submit lock: %w", err)
	}
	if !locked {
		return correction.SubmitResponse{}, correction.ErrSubmissionInProgress
	}

	// Once the first write may have gone out the run must finish every date,
	// so it does not follow the caller's cancellation. Upstream calls are
	// bounded by budget, which the lock outlives.
	detached := context.WithoutCancel(ctx)
	runCtx, cancel := context.WithTimeout(detached, budget)
	defer cancel()
	defer func() {
		if err := s.drafts.UnlockSubmit(detached, employeeID, owner); err != nil {
			slog.Warn("Failed to release submit lock", "employee_id", employeeID, "error", err)
		}
	}()

	outcomes := s.submitter.Submit(runCtx, employeeID, draft.Form)
	summary := correction.Summarize(outcomes)

	slog.Info("Correction submitted",
		"employee_id", employeeID,
		"kind", summary.Kind,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
	)

	// The form is cleared whatever the outcome, failed dates included.
	if err := s.drafts.Delete(detached, employeeID); err != nil {
		slog.Warn("Failed to reset draft after submit", "employee_id", employeeID, "error", err)
	}

	s.recordSubmission(detached, employeeID, summary, outcomes)

	if s.hub != nil {
		s.hub.Publish(employeeID, sse.EventCorrectionSubmitted, summary)
	}
	s.refresh(runCtx, employeeID)

	return correction.SubmitResponse{
		Success:  summary.AnySucceeded(),
		Summary:  summary,
		Outcomes: outcomes,
	}, nil
}

// submitBudget is the longest a submit of n dates may run: every upstream
// call timing out in turn, plus the refresh afterwards.
func (s *CorrectionServiceImpl) submitBudget(n int) time.Duration {
	return time.Duration(n*callsPerDate+1) * s.requestTimeout
}

func (s *CorrectionServiceImpl) recordSubmission(ctx context.Context, employeeID string, summary correction.Summary, outcomes []correction.DateOutcome) {
	if s.submissions == nil {
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		slog.Warn("Failed to generate submission id", "error", err)
		return
	}

	submission := correction.Submission{
		ID:         id.String(),
		EmployeeID: employeeID,
		Summary:    summary,
		Dates:      outcomes,
		CreatedAt:  s.now(),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		slog.Warn("Failed to record submission", "employee_id", employeeID, "submission_id", submission.ID, "error", err)
	}
}

// refresh reloads the attendance snapshot after a submit and pushes it to
// the employee's open streams. Failures are only logged.
func (s *CorrectionServiceImpl) refresh(ctx context.Context, employeeID string) {
	snapshot, err := s.snapshot(ctx, employeeID)
	if err != nil {
		slog.Warn("Failed to refresh attendance after submit", "employee_id", employeeID, "error", err)
		return
	}
	if s.hub != nil {
		s.hub.Publish(employeeID, sse.EventAttendanceRefreshed, snapshot)
	}
}

// AvailableDates implements correction.CorrectionService.
func (s *CorrectionServiceImpl) AvailableDates(ctx context.Context) (correction.AvailableDatesResponse, error) {
	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.AvailableDatesResponse{}, err
	}

	today := s.today()
	month, err := s.fetchMonth(ctx, employeeID, today, false)
	if err != nil {
		return correction.AvailableDatesResponse{}, err
	}

	return correction.AvailableDatesResponse{
		Month: today.Format(validator.MonthLayout),
		Today: today.Format(validator.DateLayout),
		Dates: AvailableDates(today, month.Today, month.History),
	}, nil
}

// Overview implements correction.CorrectionService.
func (s *CorrectionServiceImpl) Overview(ctx context.Context) (correction.OverviewResponse, error) {
	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.OverviewResponse{}, err
	}

	snapshot, err := s.snapshot(ctx, employeeID)
	if err != nil {
		return correction.OverviewResponse{}, err
	}

	return correction.OverviewResponse{
		Snapshot:       snapshot,
		AvailableDates: AvailableDates(s.today(), snapshot.Today, snapshot.History),
	}, nil
}

// ListSubmissions implements correction.CorrectionService.
func (s *CorrectionServiceImpl) ListSubmissions(ctx context.Context, filter correction.ListSubmissionsFilter) (correction.ListSubmissionsResponse, error) {
	if err := filter.Validate(); err != nil {
		return correction.ListSubmissionsResponse{}, err
	}

	employeeID, err := s.getEmployeeID(ctx)
	if err != nil {
		return correction.ListSubmissionsResponse{}, err
	}

	submissions, err := s.submissions.ListByEmployee(ctx, employeeID, filter.Limit)
	if err != nil {
		return correction.ListSubmissionsResponse{}, fmt.Errorf("failed to list submissions: %w", err)
	}
	if submissions == nil {
		submissions = []correction.Submission{}
	}
	return correction.ListSubmissionsResponse{Submissions: submissions}, nil
}

// upstreamError marks err as an upstream failure unless it already is one.
func upstreamError(op string, err error) error {
	if errors.Is(err, attendance.ErrUpstreamUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, attendance.ErrUpstreamUnavailable, err)
}
