package correction

import (
	"context"
	"net/http"
	"sync"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/hrisapi"
)

// fakeClient is an in-memory attendance API that records every call.
type fakeClient struct {
	mu      sync.Mutex
	records map[string]*attendance.Record // keyed by date
	calls   []string

	lookupErr     map[string]error
	clockInErr    map[string]error
	updateErr     map[string]error
	regularizeErr error
	noIDAfterSave bool

	// onCall runs outside the lock after each write-path call is recorded.
	onCall func(ctx context.Context, call string)

	today     *attendance.Record
	history   []attendance.Record
	stats     attendance.MonthlyStats
	readErr   error
	histStart string
	histEnd   string
	statMonth string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		records:    map[string]*attendance.Record{},
		lookupErr:  map[string]error{},
		clockInErr: map[string]error{},
		updateErr:  map[string]error{},
	}
}

// record logs call and runs the onCall hook. Like a real client it then
// fails once ctx is done.
func (f *fakeClient) record(ctx context.Context, call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(ctx, call)
	}
	return ctx.Err()
}

func (f *fakeClient) callsFor(date string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if len(c) > len(date) && c[len(c)-len(date):] == date {
			out = append(out, c)
		}
	}
	return out
}

// dateOf returns the date of the record carrying id.
func (f *fakeClient) dateOf(id string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for date, rec := range f.records {
		if rec.ID == id {
			return date, true
		}
	}
	return "", false
}

func (f *fakeClient) GetByEmployeeAndDate(ctx context.Context, employeeID, date string) (*attendance.Record, error) {
	if err := f.record(ctx, "get "+date); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.lookupErr[date]; err != nil {
		return nil, err
	}
	rec, ok := f.records[date]
	if !ok {
		return nil, nil
	}
	cp := *rec
	if f.noIDAfterSave {
		cp.ID = ""
	}
	return &cp, nil
}

func (f *fakeClient) ClockIn(ctx context.Context, req attendance.ClockInRequest) error {
	if err := f.record(ctx, "clock-in "+req.Date); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.clockInErr[req.Date]; err != nil {
		return err
	}
	f.records[req.Date] = &attendance.Record{
		ID:         "new-" + req.Date,
		EmployeeID: req.EmployeeID,
		Date:       req.Date,
		ClockIn:    req.ClockIn,
	}
	return nil
}

func (f *fakeClient) ClockOut(ctx context.Context, req attendance.ClockOutRequest) error {
	if err := f.record(ctx, "clock-out "+req.Date); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[req.Date]; ok {
		rec.ClockOut = req.ClockOut
	}
	return nil
}

func (f *fakeClient) Update(ctx context.Context, req attendance.UpdateRequest) error {
	date, ok := f.dateOf(req.ID)
	if !ok {
		return &hrisapi.APIError{StatusCode: http.StatusNotFound, Message: "Attendance not found"}
	}
	if err := f.record(ctx, "update "+date); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[date]; err != nil {
		return err
	}
	rec := f.records[date]
	rec.ClockIn, rec.ClockOut, rec.Status = req.ClockIn, req.ClockOut, req.Status
	return nil
}

func (f *fakeClient) Regularize(ctx context.Context, req attendance.RegularizationRequest) error {
	if date, ok := f.dateOf(req.AttendanceID); ok {
		if err := f.record(ctx, "regularize "+date); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regularizeErr
}

func (f *fakeClient) History(ctx context.Context, employeeID, startDate, endDate string) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histStart, f.histEnd = startDate, endDate
	return f.history, f.readErr
}

func (f *fakeClient) Today(ctx context.Context, employeeID string) (*attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.today, f.readErr
}

func (f *fakeClient) MonthlyStats(ctx context.Context, employeeID, month string) (attendance.MonthlyStats, error) {
	if err := ctx.Err(); err != nil {
		return attendance.MonthlyStats{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statMonth = month
	return f.stats, f.readErr
}

type fakeSubmissionRepository struct {
	mu      sync.Mutex
	created []correction.Submission
	err     error
}

func (r *fakeSubmissionRepository) Create(ctx context.Context, submission correction.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, submission)
	return nil
}

func (r *fakeSubmissionRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]correction.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []correction.Submission
	for i := len(r.created) - 1; i >= 0 && len(out) < limit; i-- {
		if r.created[i].EmployeeID == employeeID {
			out = append(out, r.created[i])
		}
	}
	return out, nil
}
