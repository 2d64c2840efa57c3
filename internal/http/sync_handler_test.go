package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-data-sync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	status     string
	lastSync   *time.Time
	manualDate time.Time
	report     *models.ComprehensiveReport
	reportErr  error
}

func (f *fakeRunner) Status() string            { return f.status }
func (f *fakeRunner) LastSyncTime() *time.Time  { return f.lastSync }
func (f *fakeRunner) Interval() time.Duration   { return 15 * time.Second }
func (f *fakeRunner) RunManual(ctx context.Context, date time.Time) string {
	f.manualDate = date
	return models.ManualPrefix + models.SyncCompletedSuccess
}
func (f *fakeRunner) BuildReport(ctx context.Context, date time.Time) (*models.ComprehensiveReport, error) {
	return f.report, f.reportErr
}

type fakeSink struct {
	connected  bool
	writeErr   error
	lastReport *models.ComprehensiveReport
}

func (f *fakeSink) CheckConnection(ctx context.Context) bool { return f.connected }
func (f *fakeSink) WriteAll(ctx context.Context, report *models.ComprehensiveReport, date time.Time) error {
	f.lastReport = report
	return f.writeErr
}

func setupHandler(runner *fakeRunner, sink *fakeSink) *Router {
	h := NewSyncHandler(runner, sink, "EU Hotel Data Sync Service", "EU", "EUR", zap.NewNop())
	r := NewRouter(zap.NewNop())
	r.RegisterSyncRoutes(h)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetStatus(t *testing.T) {
	last := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	runner := &fakeRunner{status: models.SyncCompletedSuccess, lastSync: &last}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "COMPLETED_SUCCESS", body["syncStatus"])
	assert.Equal(t, "2026-08-30T10:00:00Z", body["lastSyncTime"])
	assert.Equal(t, true, body["sinkConnected"])
	assert.NotNil(t, body["timestamp"])
}

func TestGetStatus_NeverSynced(t *testing.T) {
	runner := &fakeRunner{status: models.SyncIdle}
	router := setupHandler(runner, &fakeSink{connected: false})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "IDLE", body["syncStatus"])
	assert.Nil(t, body["lastSyncTime"])
	assert.Equal(t, false, body["sinkConnected"])
}

func TestGetInfo(t *testing.T) {
	runner := &fakeRunner{status: models.SyncIdle}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/info", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "EU Hotel Data Sync Service", body["serviceName"])
	assert.Equal(t, "EU", body["region"])
	assert.Equal(t, "15s", body["scheduleInterval"])
}

func TestManualSync_Success(t *testing.T) {
	runner := &fakeRunner{status: models.SyncIdle}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/manual?date=2026-08-15", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "2026-08-15", body["syncDate"])
	assert.Equal(t, "MANUAL_COMPLETED_SUCCESS", body["syncStatus"])
	assert.Equal(t, time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), runner.manualDate)
}

func TestManualSync_DefaultsToToday(t *testing.T) {
	runner := &fakeRunner{status: models.SyncIdle}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/manual", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, time.Now().Format("2006-01-02"), body["syncDate"])
}

func TestManualSync_InvalidDate(t *testing.T) {
	runner := &fakeRunner{status: models.SyncIdle}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/manual?date=15-08-2026", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INVALID_DATE", body["error"])
	assert.True(t, runner.manualDate.IsZero(), "run must not be triggered for a bad date")
}

func TestManualSync_SinkDown(t *testing.T) {
	runner := &fakeRunner{status: models.SyncIdle}
	router := setupHandler(runner, &fakeSink{connected: false})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/manual?date=2026-08-15", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "SINK_CONNECTION_FAILED", body["error"])
	assert.True(t, runner.manualDate.IsZero())
}

func TestManualSync_RejectsGet(t *testing.T) {
	router := setupHandler(&fakeRunner{}, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/manual", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetHealth(t *testing.T) {
	runner := &fakeRunner{status: models.SyncRunning}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "RUNNING", body["syncStatus"])
}

func TestSinkConnection(t *testing.T) {
	router := setupHandler(&fakeRunner{}, &fakeSink{connected: false})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sink/connection", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["connected"])
}

func TestTestWrite_ZeroRowReport(t *testing.T) {
	sink := &fakeSink{connected: true}
	router := setupHandler(&fakeRunner{}, sink)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sink/test-write", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	require.NotNil(t, sink.lastReport)
	assert.Equal(t, "test-report", sink.lastReport.ReportType)
	assert.Equal(t, 0, sink.lastReport.DataCount)
	assert.Empty(t, sink.lastReport.PopularRoomTypesTop5)
}

func TestTestWrite_Failure(t *testing.T) {
	sink := &fakeSink{connected: true, writeErr: errors.New("sink gone away")}
	router := setupHandler(&fakeRunner{}, sink)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sink/test-write", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestExportReport(t *testing.T) {
	report := &models.ComprehensiveReport{
		ReportDate: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		ReportType: models.ComprehensiveReportType,
		Region:     "EU",
		DataCount:  5,
		DailyTotalIncome: models.DailyTotalIncome{
			ReportDate:        time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			Region:            "EU",
			TotalIncome:       400,
			TotalReservations: 5,
			AvgPricePerNight:  80,
			Currency:          "EUR",
		},
		PopularRoomTypesTop5: []models.PopularRoomType{
			{RoomTypeID: 1, RoomTypeName: "Standard Double", ReservationCount: 3, TotalRevenue: 300, Ranking: 1},
		},
		BranchPerformance: []models.BranchPerformance{
			{BranchID: 10, BranchName: "Berlin Mitte", ReservationCount: 5, TotalRevenue: 400, AvgRevenuePerReservation: 80},
		},
		ReservationTrends: models.ReservationTrends{
			TotalReservations: 5, ConfirmedReservations: 5, CompletionRate: 100,
		},
	}
	runner := &fakeRunner{report: report}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/report/export?date=2026-08-15", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sync-report-2026-08-15.xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestExportReport_BuildFailure(t *testing.T) {
	runner := &fakeRunner{reportErr: errors.New("operational store down")}
	router := setupHandler(runner, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/report/export?date=2026-08-15", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestExportReport_InvalidDate(t *testing.T) {
	router := setupHandler(&fakeRunner{}, &fakeSink{connected: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync/report/export?date=bad", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "INVALID_DATE", body["error"])
}
