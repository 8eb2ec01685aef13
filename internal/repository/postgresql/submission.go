package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/database"
)

type submissionRepositoryImpl struct {
	db *database.DB
}

func NewSubmissionRepository(db *database.DB) correction.SubmissionRepository {
	return &submissionRepositoryImpl{db: db}
}

// Create implements correction.SubmissionRepository.
func (r *submissionRepositoryImpl) Create(ctx context.Context, submission correction.Submission) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, r.db)

		query := `
			INSERT INTO correction_submissions (id, employee_id, outcome_kind, succeeded_count, failed_count, message, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := q.Exec(ctx, query,
			submission.ID,
			submission.EmployeeID,
			string(submission.Summary.Kind),
			submission.Summary.Succeeded,
			submission.Summary.Failed,
			submission.Summary.Message,
			submission.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		if len(submission.Dates) == 0 {
			return nil
		}

		valueStrings := make([]string, 0, len(submission.Dates))
		valueArgs := make([]interface{}, 0, len(submission.Dates)*8)
		for i, o := range submission.Dates {
			workDate, err := time.Parse("2006-01-02", o.Date)
			if err != nil {
				return fmt.Errorf("invalid submission date %q: %w", o.Date, err)
			}
			warnings := o.Warnings
			if warnings == nil {
				warnings = []string{}
			}

			base := i * 8
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
			))
			valueArgs = append(valueArgs,
				submission.ID,
				i,
				workDate,
				o.Success,
				string(o.Action),
				o.AttendanceID,
				o.Error,
				warnings,
			)
		}

		dateQuery := fmt.Sprintf(`
			INSERT INTO correction_submission_dates (submission_id, position, work_date, success, action, attendance_id, error_message, warnings)
			VALUES %s
		`, strings.Join(valueStrings, ", "))

		if _, err := q.Exec(ctx, dateQuery, valueArgs...); err != nil {
			return fmt.Errorf("failed to create submission dates: %w", err)
		}
		return nil
	})
}

// ListByEmployee implements correction.SubmissionRepository. Newest first.
func (r *submissionRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]correction.Submission, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id::text, employee_id, outcome_kind, succeeded_count, failed_count, message, created_at
		FROM correction_submissions
		WHERE employee_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	submissions := []correction.Submission{}
	index := map[string]int{}
	for rows.Next() {
		var (
			s    correction.Submission
			kind string
		)
		if err := rows.Scan(&s.ID, &s.EmployeeID, &kind, &s.Summary.Succeeded, &s.Summary.Failed, &s.Summary.Message, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		s.Summary.Kind = correction.OutcomeKind(kind)
		s.Dates = []correction.DateOutcome{}
		index[s.ID] = len(submissions)
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	if len(submissions) == 0 {
		return submissions, nil
	}

	dateQuery := `
		SELECT d.submission_id::text, d.work_date, d.success, d.action, d.attendance_id, d.error_message, d.warnings
		FROM correction_submission_dates d
		JOIN (
			SELECT id FROM correction_submissions
			WHERE employee_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) s ON s.id = d.submission_id
		ORDER BY d.submission_id, d.position
	`
	dateRows, err := q.Query(ctx, dateQuery, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission dates: %w", err)
	}
	defer dateRows.Close()

	for dateRows.Next() {
		var (
			submissionID string
			workDate     time.Time
			action       string
			o            correction.DateOutcome
		)
		if err := dateRows.Scan(&submissionID, &workDate, &o.Success, &action, &o.AttendanceID, &o.Error, &o.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan submission date: %w", err)
		}
		o.Date = workDate.Format("2006-01-02")
		o.Action = correction.Action(action)
		if len(o.Warnings) == 0 {
			o.Warnings = nil
		}
		if i, ok := index[submissionID]; ok {
			submissions[i].Dates = append(submissions[i].Dates, o)
		}
	}
	if err := dateRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submission dates: %w", err)
	}

	return submissions, nil
}
