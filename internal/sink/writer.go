package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"hotel-data-sync/internal/models"

	"go.uber.org/zap"
)

// Write stages, reported on partial failure so operators can tell which
// projection was left stale.
const (
	StageDailyTotalIncome     = "daily_total_income"
	StagePopularRoomTypesTop5 = "popular_room_types_top5"
	StageBranchPerformance    = "branch_performance"
	StageReservationTrends    = "reservation_trends"
	StageComprehensiveReport  = "comprehensive_reports"
)

const syncStatusSynced = "SYNCED"

// WriteError 标识失败的写入阶段
type WriteError struct {
	Stage string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("sink write failed at stage %s: %v", e.Stage, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer owns the single outbound channel to the BI sink. Every operation
// runs acquire slot → open connection → delete-then-insert → close
// connection → release slot; the delete-then-insert per (date, projection)
// makes re-runs converge instead of duplicating rows.
type Writer struct {
	db         *sql.DB
	gate       *Gatekeeper
	dataSource string
	logger     *zap.Logger
}

// NewWriter 创建BI数据写入器
func NewWriter(db *sql.DB, gate *Gatekeeper, dataSource string, logger *zap.Logger) *Writer {
	return &Writer{
		db:         db,
		gate:       gate,
		dataSource: dataSource,
		logger:     logger,
	}
}

// withConn 获取连接槽位并打开连接，保证在所有退出路径上关闭和释放
func (w *Writer) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	if err := w.gate.Acquire(ctx); err != nil {
		return fmt.Errorf("failed to acquire sink slot: %w", err)
	}
	defer w.gate.Release()

	conn, err := w.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to open sink connection: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// CheckConnection opens a connection and issues a trivial round-trip query.
// Used both as a pipeline precondition and as the health-endpoint signal.
func (w *Writer) CheckConnection(ctx context.Context) bool {
	err := w.withConn(ctx, func(conn *sql.Conn) error {
		var one int
		if err := conn.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("Sink connection check failed", zap.Error(err))
		return false
	}
	return true
}

// WriteAll writes the four statistical projections plus the comprehensive
// JSON report in sequence, stopping at the first failure. This is a
// best-effort batch, not a transaction: a partial failure leaves earlier
// projections updated, and the next successful run for the same date
// self-heals via delete-then-insert.
func (w *Writer) WriteAll(ctx context.Context, report *models.ComprehensiveReport, date time.Time) error {
	w.logger.Info("Writing all statistics to sink",
		zap.String("date", formatDate(date)),
		zap.Int("data_count", report.DataCount),
	)

	steps := []struct {
		stage string
		fn    func() error
	}{
		{StageDailyTotalIncome, func() error { return w.WriteDailyTotalIncome(ctx, report.DailyTotalIncome, date) }},
		{StagePopularRoomTypesTop5, func() error { return w.WritePopularRoomTypesTop5(ctx, report.PopularRoomTypesTop5, date) }},
		{StageBranchPerformance, func() error { return w.WriteBranchPerformance(ctx, report.BranchPerformance, date) }},
		{StageReservationTrends, func() error { return w.WriteReservationTrends(ctx, report.ReservationTrends, date) }},
		{StageComprehensiveReport, func() error { return w.WriteComprehensiveReport(ctx, report, date) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			w.logger.Error("Sink write stage failed",
				zap.String("stage", step.stage),
				zap.String("date", formatDate(date)),
				zap.Error(err),
			)
			return &WriteError{Stage: step.stage, Err: err}
		}
	}

	w.logger.Info("All statistics written to sink", zap.String("date", formatDate(date)))
	return nil
}

// WriteDailyTotalIncome 写入每日总收入统计（delete-then-insert, keyed by date+region）
func (w *Writer) WriteDailyTotalIncome(ctx context.Context, income models.DailyTotalIncome, date time.Time) error {
	return w.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx,
			`DELETE FROM daily_total_income WHERE report_date = $1 AND region = $2`,
			formatDate(date), income.Region,
		); err != nil {
			return fmt.Errorf("failed to delete daily income rows: %w", err)
		}

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO daily_total_income (
				report_date, region, total_income, total_reservations,
				avg_price_per_night, currency, data_source, sync_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			formatDate(date), income.Region, income.TotalIncome, income.TotalReservations,
			income.AvgPricePerNight, income.Currency, w.dataSource, syncStatusSynced,
		); err != nil {
			return fmt.Errorf("failed to insert daily income row: %w", err)
		}

		return nil
	})
}

// WritePopularRoomTypesTop5 写入热门房型Top5统计
func (w *Writer) WritePopularRoomTypesTop5(ctx context.Context, rows []models.PopularRoomType, date time.Time) error {
	return w.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx,
			`DELETE FROM popular_room_types_top5 WHERE report_date = $1`,
			formatDate(date),
		); err != nil {
			return fmt.Errorf("failed to delete popular room type rows: %w", err)
		}

		for _, row := range rows {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO popular_room_types_top5 (
					report_date, room_type_id, room_type_name, reservation_count,
					total_revenue, ranking, data_source, sync_status
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				formatDate(date), row.RoomTypeID, row.RoomTypeName, row.ReservationCount,
				row.TotalRevenue, row.Ranking, w.dataSource, syncStatusSynced,
			); err != nil {
				return fmt.Errorf("failed to insert popular room type row (rank %d): %w", row.Ranking, err)
			}
		}

		return nil
	})
}

// WriteBranchPerformance 写入分店业绩统计
func (w *Writer) WriteBranchPerformance(ctx context.Context, rows []models.BranchPerformance, date time.Time) error {
	return w.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx,
			`DELETE FROM branch_performance WHERE report_date = $1`,
			formatDate(date),
		); err != nil {
			return fmt.Errorf("failed to delete branch performance rows: %w", err)
		}

		for _, row := range rows {
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO branch_performance (
					report_date, branch_id, branch_name, reservation_count,
					total_revenue, avg_revenue_per_reservation, data_source, sync_status
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				formatDate(date), row.BranchID, row.BranchName, row.ReservationCount,
				row.TotalRevenue, row.AvgRevenuePerReservation, w.dataSource, syncStatusSynced,
			); err != nil {
				return fmt.Errorf("failed to insert branch performance row (branch %d): %w", row.BranchID, err)
			}
		}

		return nil
	})
}

// WriteReservationTrends 写入预订趋势统计
func (w *Writer) WriteReservationTrends(ctx context.Context, trends models.ReservationTrends, date time.Time) error {
	return w.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx,
			`DELETE FROM reservation_trends WHERE report_date = $1`,
			formatDate(date),
		); err != nil {
			return fmt.Errorf("failed to delete reservation trend rows: %w", err)
		}

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO reservation_trends (
				report_date, total_reservations, confirmed_reservations,
				cancelled_reservations, completion_rate, data_source, sync_status
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			formatDate(date), trends.TotalReservations, trends.ConfirmedReservations,
			trends.CancelledReservations, trends.CompletionRate, w.dataSource, syncStatusSynced,
		); err != nil {
			return fmt.Errorf("failed to insert reservation trend row: %w", err)
		}

		return nil
	})
}

// WriteComprehensiveReport 写入综合统计报告（JSON blob, keyed by date+report_type）
func (w *Writer) WriteComprehensiveReport(ctx context.Context, report *models.ComprehensiveReport, date time.Time) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal comprehensive report: %w", err)
	}

	return w.withConn(ctx, func(conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx,
			`DELETE FROM comprehensive_reports WHERE report_date = $1 AND report_type = $2`,
			formatDate(date), models.ComprehensiveReportType,
		); err != nil {
			return fmt.Errorf("failed to delete comprehensive report rows: %w", err)
		}

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO comprehensive_reports (
				report_date, report_type, report_data, data_count,
				data_source, sync_status
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			formatDate(date), models.ComprehensiveReportType, payload, report.DataCount,
			w.dataSource, syncStatusSynced,
		); err != nil {
			return fmt.Errorf("failed to insert comprehensive report row: %w", err)
		}

		return nil
	})
}

func formatDate(date time.Time) string {
	return date.Format("2006-01-02")
}
