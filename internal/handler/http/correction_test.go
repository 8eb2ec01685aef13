package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-correction-go/internal/domain/correction"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/hrisapi"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-correction-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-correction-go/internal/repository/memory"
	correctionService "github.com/cmlabs-hris/hris-correction-go/internal/service/correction"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerTestSecret = "test-secret-key-for-jwt"

// fakeHRIS is a minimal attendance API keyed by date.
type fakeHRIS struct {
	mu          sync.Mutex
	records     map[string]map[string]interface{}
	rejectDates map[string]string
	authHeaders []string
}

func newFakeHRIS(t *testing.T) (*fakeHRIS, *httptest.Server) {
	t.Helper()
	f := &fakeHRIS{
		records:     map[string]map[string]interface{}{},
		rejectDates: map[string]string{},
	}

	writeData := func(w http.ResponseWriter, status int, data interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": status < 300, "data": data})
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
			f.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	r.Get("/attendance/employee/{employeeID}/date/{date}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		rec, ok := f.records[chi.URLParam(r, "date")]
		if !ok {
			writeData(w, http.StatusNotFound, nil)
			return
		}
		writeData(w, http.StatusOK, rec)
	})
	r.Post("/attendance/clock-in", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if msg, ok := f.rejectDates[body["date"]]; ok {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
			return
		}
		f.records[body["date"]] = map[string]interface{}{
			"id":       "att-" + body["date"],
			"date":     body["date"],
			"clock_in": body["clock_in"],
		}
		writeData(w, http.StatusCreated, nil)
	})
	r.Post("/attendance/clock-out", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if rec, ok := f.records[body["date"]]; ok {
			rec["clockout_time"] = body["clock_out"]
		}
		writeData(w, http.StatusOK, nil)
	})
	r.Patch("/attendance/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, nil)
	})
	r.Post("/attendance/{id}/regularization", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusCreated, nil)
	})
	r.Get("/attendance/employee/{employeeID}/history", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, []interface{}{})
	})
	r.Get("/attendance/employee/{employeeID}/today", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusNotFound, nil)
	})
	r.Get("/attendance/employee/{employeeID}/stats", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, map[string]interface{}{"present_days": 0})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeHRIS) headers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

type memorySubmissions struct {
	mu   sync.Mutex
	rows []correction.Submission
}

func (m *memorySubmissions) Create(ctx context.Context, s correction.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append([]correction.Submission{s}, m.rows...)
	return nil
}

func (m *memorySubmissions) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]correction.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []correction.Submission
	for _, s := range m.rows {
		if s.EmployeeID == employeeID && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

type testApp struct {
	router http.Handler
	jwt    jwt.Service
	hris   *fakeHRIS
	hub    *sse.Hub
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	hris, srv := newFakeHRIS(t)
	jwtService := jwt.NewJWTService(handlerTestSecret, "1h")
	hub := sse.NewHub()

	client := hrisapi.NewClient(srv.URL, 2*time.Second, hrisapi.ForwardedToken())
	svc := correctionService.NewCorrectionService(memory.NewDraftRepository(time.Hour), &memorySubmissions{}, client, hub, time.UTC, 2*time.Second)

	router := NewRouter(
		RouterOptions{Env: "test", FrontendURL: "http://localhost:3000"},
		jwtService,
		NewCorrectionHandler(svc),
		NewStreamHandler(hub, jwtService),
	)
	return &testApp{router: router, jwt: jwtService, hris: hris, hub: hub}
}

func (a *testApp) token(t *testing.T, employeeID string) string {
	t.Helper()
	token, _, err := a.jwt.GenerateAccessToken("user-1", employeeID)
	require.NoError(t, err)
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func (a *testApp) do(t *testing.T, token, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env
}

func TestCorrectionRoutes_RequireAuthentication(t *testing.T) {
	app := newTestApp(t)

	code, _ := app.do(t, "", http.MethodGet, "/api/v1/corrections/draft", nil)

	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCorrectionRoutes_RequireEmployee(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(t, app.token(t, ""), http.MethodGet, "/api/v1/corrections/draft", nil)

	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestCorrectionRoutes_SSETokenIsNotAnAccessToken(t *testing.T) {
	app := newTestApp(t)
	sseToken, _, err := app.jwt.GenerateSSEToken("emp-1")
	require.NoError(t, err)

	code, _ := app.do(t, sseToken, http.MethodGet, "/api/v1/corrections/draft", nil)

	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCorrectionRoutes_FullSubmission(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "emp-1")
	app.hris.records["2024-06-04"] = map[string]interface{}{"attendance_id": "att-existing", "work_date": "2024-06-04"}

	code, _ := app.do(t, token, http.MethodPut, "/api/v1/corrections/draft/dates", map[string]interface{}{
		"dates": []string{"2024-06-03", "2024-06-04"},
	})
	require.Equal(t, http.StatusOK, code)

	for field, value := range map[string]string{"clockIn": "09:00", "clockOut": "18:00", "comment": "forgot"} {
		code, _ := app.do(t, token, http.MethodPatch, "/api/v1/corrections/draft/broadcast", map[string]string{"field": field, "value": value})
		require.Equal(t, http.StatusOK, code)
	}

	code, env := app.do(t, token, http.MethodPost, "/api/v1/corrections/draft/apply-broadcast", nil)
	require.Equal(t, http.StatusOK, code)
	var draft correction.Draft
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Equal(t, correction.Entry{ClockIn: "09:00", ClockOut: "18:00", Comment: "forgot"}, draft.Form.Entries["2024-06-03"])

	code, _ = app.do(t, token, http.MethodPost, "/api/v1/corrections/draft/validate", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = app.do(t, token, http.MethodPost, "/api/v1/corrections/submit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "Successfully submitted corrections for 2 dates!", env.Message)

	var result correction.SubmitResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, correction.ActionCreated, result.Outcomes[0].Action)
	assert.Equal(t, "att-2024-06-03", result.Outcomes[0].AttendanceID)
	assert.Equal(t, correction.ActionUpdated, result.Outcomes[1].Action)

	headers := app.hris.headers()
	require.NotEmpty(t, headers)
	for _, header := range headers {
		assert.Equal(t, "Bearer "+token, header)
	}

	code, env = app.do(t, token, http.MethodGet, "/api/v1/corrections/draft", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Empty(t, draft.Form.Dates)

	code, env = app.do(t, token, http.MethodGet, "/api/v1/corrections/submissions?limit=5", nil)
	require.Equal(t, http.StatusOK, code)
	var list correction.ListSubmissionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Submissions, 1)
	assert.Equal(t, correction.OutcomeAllSucceeded, list.Submissions[0].Summary.Kind)
}

func TestCorrectionRoutes_ValidateEmptyDraft(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(t, app.token(t, "emp-1"), http.MethodPost, "/api/v1/corrections/draft/validate", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, map[string]string{"dates": correction.MsgDatesRequired}, env.Error.Details)
}

func TestCorrectionRoutes_SubmitInvalidDraft(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "emp-1")

	code, _ := app.do(t, token, http.MethodPut, "/api/v1/corrections/draft/dates", map[string]interface{}{"dates": []string{"2024-06-03"}})
	require.Equal(t, http.StatusOK, code)

	code, env := app.do(t, token, http.MethodPost, "/api/v1/corrections/submit", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, correction.MsgClockInRequired, env.Error.Details["2024-06-03_clockIn"])
	assert.Empty(t, app.hris.headers())
}

func TestCorrectionRoutes_SubmitAllFailed(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "emp-1")
	app.hris.rejectDates["2024-06-03"] = "Date is locked by payroll"

	code, _ := app.do(t, token, http.MethodPut, "/api/v1/corrections/draft/dates", map[string]interface{}{"dates": []string{"2024-06-03"}})
	require.Equal(t, http.StatusOK, code)
	for field, value := range map[string]string{"clockIn": "09:00", "clockOut": "18:00"} {
		code, _ := app.do(t, token, http.MethodPatch, "/api/v1/corrections/draft/entries/2024-06-03", map[string]string{"field": field, "value": value})
		require.Equal(t, http.StatusOK, code)
	}

	code, env := app.do(t, token, http.MethodPost, "/api/v1/corrections/submit", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.False(t, env.Success)
	assert.Equal(t, "Failed to submit corrections: Date is locked by payroll", env.Message)
}

func TestCorrectionRoutes_EntryOfUnselectedDate(t *testing.T) {
	app := newTestApp(t)

	code, _ := app.do(t, app.token(t, "emp-1"), http.MethodPatch, "/api/v1/corrections/draft/entries/2024-06-03", map[string]string{"field": "clockIn", "value": "09:00"})

	assert.Equal(t, http.StatusNotFound, code)
}

func TestCorrectionRoutes_BadInput(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "emp-1")

	code, env := app.do(t, token, http.MethodPatch, "/api/v1/corrections/draft/entries/June-3", map[string]string{"field": "clockIn", "value": "09:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "date")

	code, _ = app.do(t, token, http.MethodPatch, "/api/v1/corrections/draft/broadcast", map[string]string{"field": "status", "value": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = app.do(t, token, http.MethodGet, "/api/v1/corrections/submissions?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCorrectionRoutes_AvailableDates(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(t, app.token(t, "emp-1"), http.MethodGet, "/api/v1/corrections/available-dates", nil)

	require.Equal(t, http.StatusOK, code)
	var result correction.AvailableDatesResponse
	require.NoError(t, json.Unmarshal(env.Data, &result))
	today := time.Now().UTC()
	assert.Equal(t, today.Format("2006-01-02"), result.Today)
	assert.Len(t, result.Dates, today.Day())
}

func TestStream_DeliversEvents(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.router)
	defer srv.Close()

	code, env := app.do(t, app.token(t, "emp-1"), http.MethodPost, "/api/v1/corrections/stream-token", nil)
	require.Equal(t, http.StatusOK, code)
	var tok correction.SSETokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &tok))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/corrections/stream?token="+tok.Token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "event: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "event: "))
			}
		}
	}

	assert.Equal(t, "connected", readEvent())

	require.Eventually(t, func() bool { return app.hub.SubscriberCount("emp-1") == 1 }, time.Second, 10*time.Millisecond)
	app.hub.Publish("emp-1", sse.EventCorrectionSubmitted, correction.Summary{Kind: correction.OutcomeAllSucceeded})

	assert.Equal(t, sse.EventCorrectionSubmitted, readEvent())
}

func TestStream_RejectsMissingOrForeignToken(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/corrections/stream", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/corrections/stream?token="+app.token(t, "emp-1"), nil)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
