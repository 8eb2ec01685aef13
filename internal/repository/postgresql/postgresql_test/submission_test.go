package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission(t *testing.T, employeeID string, createdAt time.Time, outcomes ...correction.DateOutcome) correction.Submission {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return correction.Submission{
		ID:         id.String(),
		EmployeeID: employeeID,
		Summary:    correction.Summarize(outcomes),
		Dates:      outcomes,
		CreatedAt:  createdAt,
	}
}

func TestSubmissionRepository_CreateAndList(t *testing.T) {
	db := newTestDatabase(t)
	repo := postgresql.NewSubmissionRepository(db)
	ctx := context.Background()
	base := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

	older := newSubmission(t, "emp-1", base,
		correction.DateOutcome{Date: "2024-06-03", Success: true, Action: correction.ActionCreated, AttendanceID: "a-3"},
		correction.DateOutcome{Date: "2024-06-04", Error: "Attendance already exists"},
	)
	newer := newSubmission(t, "emp-1", base.Add(time.Hour),
		correction.DateOutcome{Date: "2024-06-01", Success: true, Action: correction.ActionUpdated, Warnings: []string{"regularization failed: closed"}},
	)
	other := newSubmission(t, "emp-2", base,
		correction.DateOutcome{Date: "2024-06-02", Success: true},
	)
	for _, s := range []correction.Submission{older, newer, other} {
		require.NoError(t, repo.Create(ctx, s))
	}

	got, err := repo.ListByEmployee(ctx, "emp-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, correction.OutcomeAllSucceeded, got[0].Summary.Kind)
	require.Len(t, got[0].Dates, 1)
	assert.Equal(t, []string{"regularization failed: closed"}, got[0].Dates[0].Warnings)

	assert.Equal(t, older.ID, got[1].ID)
	assert.Equal(t, correction.OutcomePartial, got[1].Summary.Kind)
	require.Len(t, got[1].Dates, 2)
	assert.Equal(t, "2024-06-03", got[1].Dates[0].Date)
	assert.Equal(t, correction.ActionCreated, got[1].Dates[0].Action)
	assert.Equal(t, "Attendance already exists", got[1].Dates[1].Error)

	limited, err := repo.ListByEmployee(ctx, "emp-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, newer.ID, limited[0].ID)
}

func TestSubmissionRepository_CreateIsAtomic(t *testing.T) {
	db := newTestDatabase(t)
	repo := postgresql.NewSubmissionRepository(db)
	ctx := context.Background()

	bad := newSubmission(t, "emp-1", time.Now(),
		correction.DateOutcome{Date: "not-a-date", Success: true},
	)
	require.Error(t, repo.Create(ctx, bad))

	got, err := repo.ListByEmployee(ctx, "emp-1", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := postgresql.WithTransaction(ctx, db, func(ctx context.Context) error {
		q := postgresql.GetQuerier(ctx, db)
		_, err := q.Exec(ctx, `
			INSERT INTO correction_submissions (id, employee_id, outcome_kind, message)
			VALUES ($1, 'emp-1', 'all_failed', 'x')
		`, uuid.NewString())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(ctx, "SELECT COUNT(*) FROM correction_submissions").Scan(&count))
	assert.Zero(t, count)
}
