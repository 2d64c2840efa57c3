package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"hotel-data-sync/internal/models"

	"go.uber.org/zap"
)

// topN 热门房型统计行数上限
const topN = 5

// NameResolver resolves room-type and branch display names for the IDs that
// survive anonymization. Implemented by repository.CachedNameResolver.
type NameResolver interface {
	RoomTypeNames(ctx context.Context, ids []int64) (map[int64]string, error)
	BranchNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Generator 统计报告生成器
// Consumes anonymized reservations only; revenue projections count PAID
// records, the trends projection counts every status.
type Generator struct {
	region   string
	currency string
	names    NameResolver
	logger   *zap.Logger
}

// NewGenerator 创建统计报告生成器
func NewGenerator(region, currency string, names NameResolver, logger *zap.Logger) *Generator {
	return &Generator{
		region:   region,
		currency: currency,
		names:    names,
		logger:   logger,
	}
}

// Generate builds the comprehensive report for one target date from an
// already-anonymized batch. Pure except for name lookups; a failed lookup
// degrades to placeholder names rather than failing the run.
func (g *Generator) Generate(ctx context.Context, runID string, reservations []models.Reservation, date time.Time) *models.ComprehensiveReport {
	report := &models.ComprehensiveReport{
		RunID:       runID,
		ReportDate:  date,
		ReportType:  models.ComprehensiveReportType,
		Region:      g.region,
		GeneratedAt: time.Now(),
		DataCount:   len(reservations),

		DailyTotalIncome:     g.dailyTotalIncome(reservations, date),
		PopularRoomTypesTop5: g.popularRoomTypesTop5(ctx, reservations),
		BranchPerformance:    g.branchPerformance(ctx, reservations),
		ReservationTrends:    g.reservationTrends(reservations),
	}

	g.logger.Info("Generated comprehensive report",
		zap.String("run_id", runID),
		zap.String("date", date.Format("2006-01-02")),
		zap.Int("data_count", report.DataCount),
		zap.Float64("total_income", report.DailyTotalIncome.TotalIncome),
		zap.Int("top_room_types", len(report.PopularRoomTypesTop5)),
		zap.Int("branches", len(report.BranchPerformance)),
	)

	return report
}

// dailyTotalIncome 每日总收入统计（只统计已支付的预订）
func (g *Generator) dailyTotalIncome(reservations []models.Reservation, date time.Time) models.DailyTotalIncome {
	var totalIncome float64
	paidCount := 0
	for _, r := range reservations {
		if r.PaymentStatus != models.PaymentPaid {
			continue
		}
		totalIncome += r.TotalPrice
		paidCount++
	}

	avg := 0.0
	if paidCount > 0 {
		avg = RoundHalfUp(totalIncome/float64(paidCount), 2)
	}

	return models.DailyTotalIncome{
		ReportDate:        date,
		Region:            g.region,
		TotalIncome:       RoundHalfUp(totalIncome, 2),
		TotalReservations: paidCount,
		AvgPricePerNight:  avg,
		Currency:          g.currency,
	}
}

type groupStats struct {
	id      int64
	count   int
	revenue float64
}

// groupPaid groups paid reservations by key, preserving first-encounter
// order so that ranking ties stay stable across runs.
func groupPaid(reservations []models.Reservation, key func(models.Reservation) int64) []*groupStats {
	byID := make(map[int64]*groupStats)
	var order []*groupStats
	for _, r := range reservations {
		if r.PaymentStatus != models.PaymentPaid {
			continue
		}
		id := key(r)
		s, ok := byID[id]
		if !ok {
			s = &groupStats{id: id}
			byID[id] = s
			order = append(order, s)
		}
		s.count++
		s.revenue += r.TotalPrice
	}
	return order
}

// popularRoomTypesTop5 热门房型Top5统计
// Rank by reservation count descending; ties keep input order; at most 5 rows.
func (g *Generator) popularRoomTypesTop5(ctx context.Context, reservations []models.Reservation) []models.PopularRoomType {
	groups := groupPaid(reservations, func(r models.Reservation) int64 { return r.RoomTypeID })

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].count > groups[j].count
	})
	if len(groups) > topN {
		groups = groups[:topN]
	}

	ids := make([]int64, 0, len(groups))
	for _, s := range groups {
		ids = append(ids, s.id)
	}
	names := g.resolveNames(ctx, ids, g.names.RoomTypeNames, "room-type")

	rows := make([]models.PopularRoomType, 0, len(groups))
	for i, s := range groups {
		rows = append(rows, models.PopularRoomType{
			RoomTypeID:       s.id,
			RoomTypeName:     names[s.id],
			ReservationCount: s.count,
			TotalRevenue:     RoundHalfUp(s.revenue, 2),
			Ranking:          i + 1,
		})
	}
	return rows
}

// branchPerformance 分店业绩统计（只统计已支付的预订）
func (g *Generator) branchPerformance(ctx context.Context, reservations []models.Reservation) []models.BranchPerformance {
	groups := groupPaid(reservations, func(r models.Reservation) int64 { return r.BranchID })

	ids := make([]int64, 0, len(groups))
	for _, s := range groups {
		ids = append(ids, s.id)
	}
	names := g.resolveNames(ctx, ids, g.names.BranchNames, "branch")

	rows := make([]models.BranchPerformance, 0, len(groups))
	for _, s := range groups {
		avg := 0.0
		if s.count > 0 {
			avg = RoundHalfUp(s.revenue/float64(s.count), 2)
		}
		rows = append(rows, models.BranchPerformance{
			BranchID:                 s.id,
			BranchName:               names[s.id],
			ReservationCount:         s.count,
			TotalRevenue:             RoundHalfUp(s.revenue, 2),
			AvgRevenuePerReservation: avg,
		})
	}
	return rows
}

// reservationTrends 预订趋势统计（全部状态参与计算）
func (g *Generator) reservationTrends(reservations []models.Reservation) models.ReservationTrends {
	total := len(reservations)
	confirmed := 0
	cancelled := 0
	for _, r := range reservations {
		switch r.Status {
		case models.StatusConfirmed:
			confirmed++
		case models.StatusCancelled:
			cancelled++
		}
	}

	// 完成率 = confirmed / total × 100，先取4位小数中间值，再保留2位
	rate := 0.0
	if total > 0 {
		rate = RoundHalfUp(float64(confirmed)/float64(total), 4)
		rate = RoundHalfUp(rate*100, 2)
	}

	return models.ReservationTrends{
		TotalReservations:     total,
		ConfirmedReservations: confirmed,
		CancelledReservations: cancelled,
		CompletionRate:        rate,
	}
}

// resolveNames wraps a NameResolver call with a placeholder fallback so the
// pipeline keeps going when the operational store or cache misbehaves.
func (g *Generator) resolveNames(ctx context.Context, ids []int64, lookup func(context.Context, []int64) (map[int64]string, error), kind string) map[int64]string {
	resolved := map[int64]string{}
	if len(ids) > 0 {
		m, err := lookup(ctx, ids)
		if err != nil {
			g.logger.Warn("Name lookup failed, using placeholders",
				zap.String("kind", kind),
				zap.Error(err),
			)
		} else {
			resolved = m
		}
	}

	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if name, ok := resolved[id]; ok && name != "" {
			out[id] = name
		} else {
			out[id] = fmt.Sprintf("%s-%d", kind, id)
		}
	}
	return out
}

// RoundHalfUp rounds x to the given number of decimal places, half away
// from zero (matches the sink's DECIMAL column semantics).
func RoundHalfUp(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Floor(x*p+0.5) / p
}
