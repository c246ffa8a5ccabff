package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/finance"
	"github.com/margindesk/margindesk_backend/jobs"
	"github.com/margindesk/margindesk_backend/middlewares"
	"github.com/margindesk/margindesk_backend/models"
	"github.com/margindesk/margindesk_backend/paginate"
	"github.com/margindesk/margindesk_backend/store/storetest"
	"github.com/margindesk/margindesk_backend/syncer"
	"github.com/margindesk/margindesk_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "handlers-secret"

var fixedNow = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

type emptyPeople struct{}

func (emptyPeople) PageSize() int { return 0 }

func (emptyPeople) page() (paginate.Page[json.RawMessage], error) {
	return paginate.Page[json.RawMessage]{HasMore: paginate.Bool(false)}, nil
}

func (p emptyPeople) EmployeesPage(context.Context, string) (paginate.Page[json.RawMessage], error) {
	return p.page()
}

func (p emptyPeople) LeavesPage(context.Context, string) (paginate.Page[json.RawMessage], error) {
	return p.page()
}

func (p emptyPeople) HolidaysPage(context.Context, string) (paginate.Page[json.RawMessage], error) {
	return p.page()
}

type staticDetails map[string]string

func (s staticDetails) BillDetail(ctx context.Context, id string) (json.RawMessage, error) {
	return json.RawMessage(s[id]), nil
}

type fixture struct {
	mem      *storetest.Memory
	runner   *jobs.Runner
	router   *gin.Engine
	archived []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	mem := storetest.New()
	clock := func() time.Time { return fixedNow }

	f := &fixture{mem: mem}
	sy := syncer.New(mem, nil, emptyPeople{}, nil, nil, logger, syncer.Options{}).WithClock(clock)
	f.runner = jobs.NewRunner(mem, staticDetails{
		"B1": `{"bill_id":"B1","line_items":[{"line_item_id":"L1","item_total":10}]}`,
	}, nil, logger).WithClock(clock)

	d := &Deps{
		Syncer:   sy,
		Jobs:     f.runner,
		Reports:  finance.NewEngine(mem, logger),
		Store:    mem,
		Settings: &config.Settings{ReportCacheTTL: time.Minute},
		Logger:   logger,
		Now:      clock,
		Archive: func(ctx context.Context, object, contentType string, data []byte) (string, error) {
			f.archived = append(f.archived, object)
			return "gs://bucket/" + object, nil
		},
	}
	f.router = gin.New()
	f.router.Use(middlewares.AuthMiddleware(testSecret, false))
	f.router.GET("/healthz", HealthzHandler())
	Register(f.router, d)
	return f
}

func withRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	config.SetRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { config.SetRedisClient(nil) })
	return mr
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	return f.doWithToken("", method, path, body)
}

func (f *fixture) doWithToken(token, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodGet, "/healthz", nil).Code)
}

func TestSyncRejectsBadRequests(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/sync", map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/sync", map[string]string{"sync_type": "payroll"}).Code)

	w := f.do(http.MethodPost, "/api/sync", map[string]string{"sync_type": "bills"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "date_range is required")

	w = f.do(http.MethodPost, "/api/sync", map[string]string{"sync_type": "expenses", "date_range": "next_decade"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	logs, _ := f.mem.ListSyncLogs(context.Background(), storeFilterAll())
	assert.Empty(t, logs)
}

func TestAuthenticatedUserIsRecordedAsTrigger(t *testing.T) {
	f := newFixture(t)
	tok, err := utils.JwtGenerate(testSecret, 7, "finance", time.Hour)
	require.NoError(t, err)

	w := f.doWithToken(tok, http.MethodPost, "/api/sync", map[string]string{"sync_type": "holidays"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "user:7", decode[models.SyncLog](t, w).TriggeredBy)

	w = f.doWithToken(tok, http.MethodPost, "/api/sync/bill-details", map[string]string{"date_range": "last_month"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	f.runner.Wait()
	id := decode[map[string]any](t, w)["job_id"].(string)
	job, err := f.mem.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "user:7", job.TriggeredBy)
}

func TestSyncReturnsLog(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/sync", map[string]string{"sync_type": "holidays"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	l := decode[models.SyncLog](t, w)
	assert.Equal(t, models.SyncTypeHolidays, l.SyncType)
	assert.Equal(t, models.SyncStatusSuccess, l.Status)
	assert.Equal(t, models.SyncTriggeredManual, l.TriggeredBy)

	w = f.do(http.MethodGet, "/api/sync/logs?sync_type=holidays&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.SyncLog](t, w), 1)
}

func TestSyncWithoutClientIsServerErrorWithCounts(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/sync", map[string]string{"sync_type": "contacts"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[struct {
		Error   string         `json:"error"`
		SyncLog models.SyncLog `json:"sync_log"`
	}](t, w)
	assert.Contains(t, body.Error, "not connected")
	assert.Equal(t, models.SyncStatusFailed, body.SyncLog.Status)
	assert.Equal(t, 0, body.SyncLog.RecordsSynced)
}

func TestSyncAllReturnsEveryLog(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/sync", map[string]string{"sync_type": "all"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[struct {
		SyncLogs []models.SyncLog `json:"sync_logs"`
	}](t, w)
	assert.Len(t, body.SyncLogs, len(models.AllSyncOrder))
}

func TestSyncLogsRejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/sync/logs?sync_type=nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/sync/logs?limit=0", nil).Code)
}

func TestBillDetailsJobLifecycle(t *testing.T) {
	f := newFixture(t)
	date := time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.mem.CreateBill(context.Background(), &models.Bill{ZohoBillId: "B1", Date: &date}))

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/sync/bill-details", map[string]string{}).Code)

	w := f.do(http.MethodPost, "/api/sync/bill-details", map[string]string{"date_range": "last_month"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	started := decode[map[string]string](t, w)
	require.NotEmpty(t, started["job_id"])
	f.runner.Wait()

	w = f.do(http.MethodGet, "/api/sync/jobs/"+started["job_id"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode[map[string]any](t, w)
	assert.Equal(t, "completed", job["status"])
	assert.Equal(t, float64(1), job["total"])
	assert.Equal(t, float64(1), job["success_count"])
	assert.Equal(t, float64(100), job["progress_percentage"])
	assert.Equal(t, []any{}, job["error_messages"])

	assert.Equal(t, http.StatusConflict, f.do(http.MethodDelete, "/api/sync/jobs/"+started["job_id"], nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/sync/jobs/unknown", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/sync/jobs/unknown", nil).Code)
}

func seedReport(t *testing.T, mem *storetest.Memory) int {
	t.Helper()
	pod := mem.AddPod(models.Pod{Name: "Payments"})
	p := &models.Person{Name: "asha", Email: "asha@x.com", Status: models.PersonStatusActive}
	require.NoError(t, mem.CreatePerson(context.Background(), p))
	mem.AddPodMember(models.PodMember{
		PodId: pod, PersonId: p.ID,
		StartDate:     time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
		AllocationPct: decimal.NewFromInt(100),
	})
	mem.AddSalary(models.Salary{PersonId: p.ID, Year: 2024, Month: 4, Total: decimal.NewFromInt(30000)})
	return pod
}

func TestPodFinancialsIsCached(t *testing.T) {
	mr := withRedis(t)
	f := newFixture(t)
	pod := seedReport(t, f.mem)

	path := "/api/reports/pod-financials?pod_id=" + itoa(pod) + "&start_month=2024-04&end_month=2024-04"
	w := f.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rep := decode[finance.PodReport](t, w)
	assert.True(t, decimal.NewFromInt(16000).Equal(rep.Totals.DirectCost), rep.Totals.DirectCost.String())
	assert.Equal(t, "2024-04-30", rep.EndDate.Format("2006-01-02"))

	key := reportCacheKey(pod, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC))
	assert.True(t, mr.Exists(key))

	// served from the cache even after the underlying data changes
	f.mem.AddSalary(models.Salary{PersonId: rep.Costs[0].PersonID, Year: 2024, Month: 4, Total: decimal.NewFromInt(1)})
	w = f.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[finance.PodReport](t, w)
	assert.True(t, rep.Totals.DirectCost.Equal(again.Totals.DirectCost))
}

func TestPodFinancialsValidation(t *testing.T) {
	f := newFixture(t)
	pod := seedReport(t, f.mem)

	cases := map[string]int{
		"/api/reports/pod-financials?start_month=2024-04&end_month=2024-04":                             http.StatusBadRequest,
		"/api/reports/pod-financials?pod_id=" + itoa(pod) + "&start_month=April&end_month=2024-04":      http.StatusBadRequest,
		"/api/reports/pod-financials?pod_id=" + itoa(pod) + "&start_month=2024-05&end_month=2024-04":    http.StatusBadRequest,
		"/api/reports/pod-financials?pod_id=999&start_month=2024-04&end_month=2024-04":                  http.StatusNotFound,
		"/api/reports/pod-financials?pod_id=" + itoa(pod) + "&start_month=2024-04-10&end_month=2024-04": http.StatusOK,
	}
	for path, want := range cases {
		assert.Equal(t, want, f.do(http.MethodGet, path, nil).Code, path)
	}
}

func TestPodFinancialsExport(t *testing.T) {
	f := newFixture(t)
	pod := seedReport(t, f.mem)

	w := f.do(http.MethodGet, "/api/reports/pod-financials/export?pod_id="+itoa(pod)+"&start_month=2024-04&end_month=2024-04", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "pod-"+itoa(pod)+"-202404-202404.xlsx")
	require.Len(t, f.archived, 1)
	assert.Equal(t, "gs://bucket/"+f.archived[0], w.Header().Get("X-Archive-Location"))

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Summary")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, "Month", rows[0][0])
	assert.Equal(t, "2024-04", rows[1][0])

	costs, err := book.GetRows("Costs")
	require.NoError(t, err)
	assert.Len(t, costs, 2)
}

func TestBillInclusionOverride(t *testing.T) {
	f := newFixture(t)
	b := &models.Bill{ZohoBillId: "B9", IncludeInCalculation: true}
	require.NoError(t, f.mem.CreateBill(context.Background(), b))

	w := f.do(http.MethodPatch, "/api/bills/"+itoa(b.ID)+"/inclusion", map[string]any{"include_in_calculation": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := f.mem.GetBill(context.Background(), b.ID)
	require.NoError(t, err)
	assert.False(t, got.IncludeInCalculation)
	assert.True(t, got.InclusionOverridden)
	assert.Equal(t, "excluded manually", got.ExclusionReason)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/api/bills/"+itoa(b.ID)+"/inclusion", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPatch, "/api/bills/999/inclusion", map[string]any{"include_in_calculation": true}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPatch, "/api/bills/abc/inclusion", map[string]any{"include_in_calculation": true}).Code)
}

func TestExpenseInclusionOverride(t *testing.T) {
	f := newFixture(t)
	e := &models.Expense{ZohoExpenseId: "E1", IncludeInCalculation: false, ExclusionReason: "rule"}
	require.NoError(t, f.mem.CreateExpense(context.Background(), e))

	w := f.do(http.MethodPatch, "/api/expenses/"+itoa(e.ID)+"/inclusion", map[string]any{"include_in_calculation": true, "reason": "ignored"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := f.mem.GetExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, got.IncludeInCalculation)
	assert.True(t, got.InclusionOverridden)
	assert.Empty(t, got.ExclusionReason)
}

func TestExclusionRules(t *testing.T) {
	f := newFixture(t)

	bad := map[string]any{"entity_type": "bill", "field": "vendor_name", "operator": "matches", "value": "x"}
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/exclusion-rules", bad).Code)
	bad = map[string]any{"entity_type": "invoice", "field": "vendor_name", "operator": "equals"}
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/exclusion-rules", bad).Code)

	ok := map[string]any{"entity_type": "bill", "field": "vendor_name", "operator": "contains", "value": "AWS", "reason": "infra"}
	w := f.do(http.MethodPost, "/api/exclusion-rules", ok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.ExclusionRule](t, w)
	assert.True(t, created.Enabled)

	w = f.do(http.MethodGet, "/api/exclusion-rules", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decode[[]models.ExclusionRule](t, w)
	require.Len(t, rules, 1)
	assert.Equal(t, models.RuleOperatorContains, rules[0].Operator)
}
