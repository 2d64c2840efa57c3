package scheduler_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-data-sync/internal/anonymizer"
	"hotel-data-sync/internal/models"
	"hotel-data-sync/internal/report"
	"hotel-data-sync/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	records []models.Reservation
	err     error

	lastDate   time.Time
	todayCalls int
	dateCalls  int
	panics     bool
}

func (f *fakeSource) FindToday(ctx context.Context) ([]models.Reservation, error) {
	if f.panics {
		panic("source blew up")
	}
	f.todayCalls++
	return f.records, f.err
}

func (f *fakeSource) FindByDate(ctx context.Context, date time.Time) ([]models.Reservation, error) {
	if f.panics {
		panic("source blew up")
	}
	f.dateCalls++
	f.lastDate = date
	return f.records, f.err
}

type fakeWriter struct {
	connected  bool
	writeErr   error
	writeCalls int
	lastReport *models.ComprehensiveReport
}

func (f *fakeWriter) CheckConnection(ctx context.Context) bool {
	return f.connected
}

func (f *fakeWriter) WriteAll(ctx context.Context, rep *models.ComprehensiveReport, date time.Time) error {
	f.writeCalls++
	f.lastReport = rep
	return f.writeErr
}

// leakyAnonymizer simulates a regression where a PII field survives the copy.
type leakyAnonymizer struct{}

func (leakyAnonymizer) Anonymize(reservations []models.Reservation) []models.Reservation {
	return reservations
}

func (leakyAnonymizer) Verify(reservations []models.Reservation) int {
	return anonymizer.VerifyAll(reservations)
}

type noNames struct{}

func (noNames) RoomTypeNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return map[int64]string{}, nil
}

func (noNames) BranchNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return map[int64]string{}, nil
}

func newScheduler(source *fakeSource, writer *fakeWriter) *scheduler.SyncScheduler {
	gen := report.NewGenerator("EU", "EUR", noNames{}, zap.NewNop())
	return scheduler.NewSyncScheduler(source, anonymizer.Service{}, gen, writer, 15*time.Second, zap.NewNop())
}

func paidReservation(id int64) models.Reservation {
	userID := int64(99)
	name := "Jane Doe"
	return models.Reservation{
		ID:            id,
		UserID:        &userID,
		RoomTypeID:    1,
		BranchID:      1,
		TotalPrice:    100,
		Status:        models.StatusConfirmed,
		PaymentStatus: models.PaymentPaid,
		ContactName:   &name,
	}
}

func TestRunAutomatic_Success(t *testing.T) {
	source := &fakeSource{records: []models.Reservation{paidReservation(1), paidReservation(2)}}
	writer := &fakeWriter{connected: true}
	s := newScheduler(source, writer)

	status := s.RunAutomatic(context.Background())

	assert.Equal(t, models.SyncCompletedSuccess, status)
	assert.Equal(t, models.SyncCompletedSuccess, s.Status())
	assert.Equal(t, 1, source.todayCalls)
	assert.Equal(t, 1, writer.writeCalls)
	require.NotNil(t, s.LastSyncTime())

	// The report handed to the sink must be built from anonymized data.
	require.NotNil(t, writer.lastReport)
	assert.Equal(t, 2, writer.lastReport.DataCount)
	assert.NotEmpty(t, writer.lastReport.RunID)
}

func TestRunAutomatic_SinkUnreachable(t *testing.T) {
	source := &fakeSource{records: []models.Reservation{paidReservation(1)}}
	writer := &fakeWriter{connected: false}
	s := newScheduler(source, writer)

	status := s.RunAutomatic(context.Background())

	assert.Equal(t, models.SyncFailedConnection, status)
	// Precondition fails fast: no fetch, no writes.
	assert.Equal(t, 0, source.todayCalls)
	assert.Equal(t, 0, writer.writeCalls)
	assert.Nil(t, s.LastSyncTime())
}

func TestRunAutomatic_NoData(t *testing.T) {
	source := &fakeSource{}
	writer := &fakeWriter{connected: true}
	s := newScheduler(source, writer)

	status := s.RunAutomatic(context.Background())

	assert.Equal(t, models.SyncCompletedNoData, status)
	assert.Equal(t, 0, writer.writeCalls, "no writes may be attempted for an empty batch")
}

func TestRunAutomatic_WriteFailure(t *testing.T) {
	source := &fakeSource{records: []models.Reservation{paidReservation(1)}}
	writer := &fakeWriter{connected: true, writeErr: errors.New("stage failed")}
	s := newScheduler(source, writer)

	status := s.RunAutomatic(context.Background())

	assert.Equal(t, models.SyncFailedWrite, status)
	assert.Nil(t, s.LastSyncTime())
}

func TestRunAutomatic_FetchError(t *testing.T) {
	source := &fakeSource{err: errors.New("operational store down")}
	writer := &fakeWriter{connected: true}
	s := newScheduler(source, writer)

	status := s.RunAutomatic(context.Background())

	assert.Equal(t, models.SyncFailedError, status)
	assert.Equal(t, 0, writer.writeCalls)
}

func TestRunAutomatic_PanicMappedToFailedError(t *testing.T) {
	source := &fakeSource{panics: true}
	writer := &fakeWriter{connected: true}
	s := newScheduler(source, writer)

	require.NotPanics(t, func() {
		status := s.RunAutomatic(context.Background())
		assert.Equal(t, models.SyncFailedError, status)
	})
}

func TestRunAutomatic_AnonymizationRegressionAborts(t *testing.T) {
	source := &fakeSource{records: []models.Reservation{paidReservation(1)}}
	writer := &fakeWriter{connected: true}
	gen := report.NewGenerator("EU", "EUR", noNames{}, zap.NewNop())
	s := scheduler.NewSyncScheduler(source, leakyAnonymizer{}, gen, writer, 15*time.Second, zap.NewNop())

	status := s.RunAutomatic(context.Background())

	assert.Equal(t, models.SyncFailedAnonymization, status)
	assert.Equal(t, 0, writer.writeCalls, "no partial write after a PII leak")
}

func TestRunManual_UsesGivenDateAndPrefix(t *testing.T) {
	source := &fakeSource{records: []models.Reservation{paidReservation(1)}}
	writer := &fakeWriter{connected: true}
	s := newScheduler(source, writer)

	date := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	status := s.RunManual(context.Background(), date)

	assert.Equal(t, models.ManualPrefix+models.SyncCompletedSuccess, status)
	assert.Equal(t, 1, source.dateCalls)
	assert.Equal(t, 0, source.todayCalls)
	assert.Equal(t, date, source.lastDate)
}

func TestRunManual_FailureStatusesCarryPrefix(t *testing.T) {
	source := &fakeSource{records: []models.Reservation{paidReservation(1)}}
	writer := &fakeWriter{connected: false}
	s := newScheduler(source, writer)

	status := s.RunManual(context.Background(), time.Now())

	assert.Equal(t, models.ManualPrefix+models.SyncFailedConnection, status)
}

func TestStatusHolder_ConcurrentReadsAndWrites(t *testing.T) {
	h := scheduler.NewStatusHolder()
	assert.Equal(t, models.SyncIdle, h.Status())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			h.Set(models.SyncRunning)
			h.MarkSuccess(time.Now())
		}
	}()
	for i := 0; i < 1000; i++ {
		_ = h.Status()
		_ = h.LastSyncTime()
	}
	<-done

	assert.Equal(t, models.SyncRunning, h.Status())
	assert.NotNil(t, h.LastSyncTime())
}
