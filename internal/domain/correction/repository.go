package correction

import (
	"context"
	"time"
)

// DraftRepository stores one draft per employee.
type DraftRepository interface {
	// Get returns the stored draft, or a fresh empty draft when none exists.
	Get(ctx context.Context, employeeID string) (Draft, error)

	// Update applies fn to the stored draft atomically and persists the result.
	// When fn returns an error nothing is written.
	Update(ctx context.Context, employeeID string, fn func(d *Draft) error) (Draft, error)

	Delete(ctx context.Context, employeeID string) error

	// TryLockSubmit sets the employee's submitting flag on behalf of owner.
	// It returns false when the flag is already held.
	TryLockSubmit(ctx context.Context, employeeID string, owner string, ttl time.Duration) (bool, error)

	// UnlockSubmit clears the flag only while owner still holds it.
	UnlockSubmit(ctx context.Context, employeeID string, owner string) error

	// PurgeExpired drops drafts not updated within the store's TTL.
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// SubmissionRepository keeps the log of submit attempts.
type SubmissionRepository interface {
	Create(ctx context.Context, submission Submission) error
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]Submission, error)
}
