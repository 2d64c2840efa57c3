package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hotel-data-sync/internal/models"

	"go.uber.org/zap"
)

// SyncRunner 同步调度器对外暴露的能力
type SyncRunner interface {
	Status() string
	LastSyncTime() *time.Time
	Interval() time.Duration
	RunManual(ctx context.Context, date time.Time) string
	BuildReport(ctx context.Context, date time.Time) (*models.ComprehensiveReport, error)
}

// SinkAccess BI库连接探测与写入
type SinkAccess interface {
	CheckConnection(ctx context.Context) bool
	WriteAll(ctx context.Context, report *models.ComprehensiveReport, date time.Time) error
}

// SyncHandler 数据同步运维接口
type SyncHandler struct {
	runner      SyncRunner
	sink        SinkAccess
	serviceName string
	region      string
	currency    string
	logger      *zap.Logger
}

func NewSyncHandler(runner SyncRunner, sink SinkAccess, serviceName, region, currency string, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		runner:      runner,
		sink:        sink,
		serviceName: serviceName,
		region:      region,
		currency:    currency,
		logger:      logger,
	}
}

// GetStatus 查询同步状态
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"syncStatus":    h.runner.Status(),
		"lastSyncTime":  formatTimePtr(h.runner.LastSyncTime()),
		"sinkConnected": h.sink.CheckConnection(r.Context()),
		"timestamp":     nowMillis(),
	})
}

// GetInfo 查询同步服务详细信息
func (h *SyncHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"serviceName":      h.serviceName,
		"description":      "生成匿名化统计报告并同步到BI数据库",
		"region":           h.region,
		"syncStatus":       h.runner.Status(),
		"lastSyncTime":     formatTimePtr(h.runner.LastSyncTime()),
		"scheduleInterval": h.runner.Interval().String(),
		"sinkConnected":    h.sink.CheckConnection(r.Context()),
		"timestamp":        nowMillis(),
	})
}

// ManualSync 手动触发同步（同步执行，返回最终状态）
func (h *SyncHandler) ManualSync(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":   false,
			"message":   "invalid date, expected YYYY-MM-DD",
			"error":     "INVALID_DATE",
			"timestamp": nowMillis(),
		})
		return
	}

	// 前置检查：BI库连不上就不触发
	if !h.sink.CheckConnection(r.Context()) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":   false,
			"message":   "sink database unreachable, sync not triggered",
			"syncDate":  date.Format("2006-01-02"),
			"error":     "SINK_CONNECTION_FAILED",
			"timestamp": nowMillis(),
		})
		return
	}

	h.logger.Info("Manual sync triggered",
		zap.String("date", date.Format("2006-01-02")),
	)
	status := h.runner.RunManual(r.Context(), date)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    "manual sync executed",
		"syncStatus": status,
		"syncDate":   date.Format("2006-01-02"),
		"timestamp":  nowMillis(),
	})
}

// GetHealth 健康检查
func (h *SyncHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "UP",
		"service":       h.serviceName,
		"syncStatus":    h.runner.Status(),
		"lastSyncTime":  formatTimePtr(h.runner.LastSyncTime()),
		"sinkConnected": h.sink.CheckConnection(r.Context()),
		"timestamp":     nowMillis(),
	})
}

// SinkConnection 检查BI库连接状态
func (h *SyncHandler) SinkConnection(w http.ResponseWriter, r *http.Request) {
	connected := h.sink.CheckConnection(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"connected": connected,
		"timestamp": nowMillis(),
	})
}

// TestWrite 用零数据报告验证BI库写入链路（含 delete-then-insert 与连接占用）
func (h *SyncHandler) TestWrite(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	testReport := &models.ComprehensiveReport{
		ReportDate:  now,
		ReportType:  "test-report",
		Region:      h.region,
		GeneratedAt: now,
		DataCount:   0,
		DailyTotalIncome: models.DailyTotalIncome{
			ReportDate: now,
			Region:     h.region,
			Currency:   h.currency,
		},
	}

	if err := h.sink.WriteAll(r.Context(), testReport, now); err != nil {
		h.logger.Error("Sink test write failed", zap.Error(err))
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   false,
			"message":   "sink write test failed: " + err.Error(),
			"timestamp": nowMillis(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "sink write test succeeded",
		"timestamp": nowMillis(),
	})
}

// ExportReport 导出指定日期四类统计的 Excel 报表
func (h *SyncHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r, time.Now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success":   false,
			"message":   "invalid date, expected YYYY-MM-DD",
			"error":     "INVALID_DATE",
			"timestamp": nowMillis(),
		})
		return
	}

	report, err := h.runner.BuildReport(r.Context(), date)
	if err != nil {
		h.logger.Error("Failed to build report for export",
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":   false,
			"message":   "failed to build report: " + err.Error(),
			"timestamp": nowMillis(),
		})
		return
	}

	data, err := GenerateReportWorkbook(report)
	if err != nil {
		h.logger.Error("Failed to generate report workbook", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":   false,
			"message":   "failed to generate workbook: " + err.Error(),
			"timestamp": nowMillis(),
		})
		return
	}

	filename := fmt.Sprintf("sync-report-%s.xlsx", date.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseDateParam 解析 ?date=YYYY-MM-DD，缺省为 def
func parseDateParam(r *http.Request, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return def, nil
	}
	return time.Parse("2006-01-02", raw)
}
