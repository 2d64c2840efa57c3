package scheduler

import (
	"context"
	"fmt"
	"time"

	"hotel-data-sync/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationSource reads raw reservations from the operational store.
type ReservationSource interface {
	FindToday(ctx context.Context) ([]models.Reservation, error)
	FindByDate(ctx context.Context, date time.Time) ([]models.Reservation, error)
}

// Anonymizer strips PII and verifies the result.
type Anonymizer interface {
	Anonymize(reservations []models.Reservation) []models.Reservation
	// Verify returns the index of the first record still carrying PII, -1 if clean.
	Verify(reservations []models.Reservation) int
}

// ReportGenerator builds the comprehensive report from anonymized records.
type ReportGenerator interface {
	Generate(ctx context.Context, runID string, reservations []models.Reservation, date time.Time) *models.ComprehensiveReport
}

// SinkWriter writes projections to the BI sink.
type SinkWriter interface {
	CheckConnection(ctx context.Context) bool
	WriteAll(ctx context.Context, report *models.ComprehensiveReport, date time.Time) error
}

// SyncScheduler drives the sync pipeline on a fixed interval and on demand.
// Automatic and manual runs share one state machine; manual outcomes carry
// the MANUAL_ status prefix. Overlapping runs are not mutually excluded:
// delete-then-insert makes the last completed writer win per projection,
// which is acceptable for a statistics mirror.
type SyncScheduler struct {
	source    ReservationSource
	anonymize Anonymizer
	generator ReportGenerator
	writer    SinkWriter
	status    *StatusHolder
	interval  time.Duration
	logger    *zap.Logger
}

// NewSyncScheduler 创建数据同步调度器
func NewSyncScheduler(
	source ReservationSource,
	anonymize Anonymizer,
	generator ReportGenerator,
	writer SinkWriter,
	interval time.Duration,
	logger *zap.Logger,
) *SyncScheduler {
	return &SyncScheduler{
		source:    source,
		anonymize: anonymize,
		generator: generator,
		writer:    writer,
		status:    NewStatusHolder(),
		interval:  interval,
		logger:    logger,
	}
}

// Status 当前同步状态
func (s *SyncScheduler) Status() string {
	return s.status.Status()
}

// LastSyncTime 最后一次成功同步时间
func (s *SyncScheduler) LastSyncTime() *time.Time {
	return s.status.LastSyncTime()
}

// Interval 配置的自动同步间隔
func (s *SyncScheduler) Interval() time.Duration {
	return s.interval
}

// Start runs the automatic trigger loop until the context is cancelled.
// First run fires immediately, then once per interval.
func (s *SyncScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Starting sync scheduler",
		zap.Duration("interval", s.interval),
	)

	s.RunAutomatic(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			s.RunAutomatic(ctx)
		}
	}
}

// RunAutomatic executes one scheduled run for today's records and returns
// the final status. Never panics: a scheduled run that blew up must not
// kill the scheduler loop.
func (s *SyncScheduler) RunAutomatic(ctx context.Context) string {
	return s.run(ctx, time.Now(), false)
}

// RunManual executes one operator-triggered run for the given date.
func (s *SyncScheduler) RunManual(ctx context.Context, date time.Time) string {
	return s.run(ctx, date, true)
}

func (s *SyncScheduler) run(ctx context.Context, date time.Time, manual bool) (finalStatus string) {
	prefix := ""
	if manual {
		prefix = models.ManualPrefix
	}

	runID := uuid.New().String()
	start := time.Now()
	log := s.logger.With(
		zap.String("run_id", runID),
		zap.String("date", date.Format("2006-01-02")),
		zap.Bool("manual", manual),
	)

	setStatus := func(status string) string {
		finalStatus = prefix + status
		s.status.Set(finalStatus)
		return finalStatus
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Sync run panicked", zap.Any("panic", r))
			setStatus(models.SyncFailedError)
		}
	}()

	log.Info("Starting data sync run")
	setStatus(models.SyncRunning)

	// 前置检查：BI数据库连接
	if !s.writer.CheckConnection(ctx) {
		log.Error("Sink connection failed, skipping sync")
		return setStatus(models.SyncFailedConnection)
	}

	records, err := s.fetch(ctx, date, manual)
	if err != nil {
		log.Error("Failed to fetch reservations", zap.Error(err))
		return setStatus(models.SyncFailedError)
	}
	log.Info("Fetched reservations", zap.Int("count", len(records)))

	if len(records) == 0 {
		log.Info("No reservations for date, skipping sync")
		return setStatus(models.SyncCompletedNoData)
	}

	anonymized := s.anonymize.Anonymize(records)

	// 验证脱敏结果：任何一条仍携带PII即整体中止，不做部分写入
	if idx := s.anonymize.Verify(anonymized); idx >= 0 {
		log.Error("Anonymization verification failed, record still carries PII",
			zap.Int("index", idx),
			zap.Int64("reservation_id", anonymized[idx].ID),
		)
		return setStatus(models.SyncFailedAnonymization)
	}
	log.Info("Anonymization completed", zap.Int("count", len(anonymized)))

	report := s.generator.Generate(ctx, runID, anonymized, date)

	if err := s.writer.WriteAll(ctx, report, date); err != nil {
		log.Error("Failed to write statistics to sink", zap.Error(err))
		return setStatus(models.SyncFailedWrite)
	}

	s.status.MarkSuccess(time.Now())
	log.Info("Data sync run completed",
		zap.Int("data_count", report.DataCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return setStatus(models.SyncCompletedSuccess)
}

// BuildReport runs the read side of the pipeline (fetch, anonymize, generate)
// for a date without touching the sink. Used by the report export endpoint.
func (s *SyncScheduler) BuildReport(ctx context.Context, date time.Time) (*models.ComprehensiveReport, error) {
	records, err := s.source.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetch reservations: %w", err)
	}

	anonymized := s.anonymize.Anonymize(records)
	if idx := s.anonymize.Verify(anonymized); idx >= 0 {
		return nil, fmt.Errorf("anonymization verification failed at record %d", idx)
	}

	return s.generator.Generate(ctx, uuid.New().String(), anonymized, date), nil
}

func (s *SyncScheduler) fetch(ctx context.Context, date time.Time, manual bool) ([]models.Reservation, error) {
	if manual {
		return s.source.FindByDate(ctx, date)
	}
	return s.source.FindToday(ctx)
}
