package models

import "time"

// Sync run statuses. Manual runs use the MANUAL_ prefix so that operators
// can tell automatic and manual outcomes apart in status queries.
const (
	SyncIdle                = "IDLE"
	SyncRunning             = "RUNNING"
	SyncCompletedSuccess    = "COMPLETED_SUCCESS"
	SyncCompletedNoData     = "COMPLETED_NO_DATA"
	SyncFailedConnection    = "FAILED_CONNECTION"
	SyncFailedAnonymization = "FAILED_ANONYMIZATION"
	SyncFailedWrite         = "FAILED_WRITE"
	SyncFailedError         = "FAILED_ERROR"

	ManualPrefix = "MANUAL_"
)

// ComprehensiveReportType report_type value for the catch-all sink table
const ComprehensiveReportType = "comprehensive-report"

// DailyTotalIncome 每日总收入统计（one row per report_date + region）
type DailyTotalIncome struct {
	ReportDate        time.Time `json:"reportDate"`
	Region            string    `json:"region"`
	TotalIncome       float64   `json:"totalIncome"`
	TotalReservations int       `json:"totalReservations"`
	AvgPricePerNight  float64   `json:"avgPricePerNight"`
	Currency          string    `json:"currency"`
}

// PopularRoomType 热门房型统计行（top-5 by reservation count）
type PopularRoomType struct {
	RoomTypeID       int64   `json:"roomTypeId"`
	RoomTypeName     string  `json:"roomTypeName"`
	ReservationCount int     `json:"reservationCount"`
	TotalRevenue     float64 `json:"totalRevenue"`
	Ranking          int     `json:"ranking"`
}

// BranchPerformance 分店业绩统计行（one row per branch）
type BranchPerformance struct {
	BranchID                 int64   `json:"branchId"`
	BranchName               string  `json:"branchName"`
	ReservationCount         int     `json:"reservationCount"`
	TotalRevenue             float64 `json:"totalRevenue"`
	AvgRevenuePerReservation float64 `json:"avgRevenuePerReservation"`
}

// ReservationTrends 预订趋势统计（one row per report_date, all statuses counted）
type ReservationTrends struct {
	TotalReservations     int     `json:"totalReservations"`
	ConfirmedReservations int     `json:"confirmedReservations"`
	CancelledReservations int     `json:"cancelledReservations"`
	CompletionRate        float64 `json:"completionRate"`
}

// ComprehensiveReport is the full output of one pipeline run: the four
// projections plus run metadata. Serialized to JSON for the
// comprehensive_reports sink table.
type ComprehensiveReport struct {
	RunID       string    `json:"runId"`
	ReportDate  time.Time `json:"reportDate"`
	ReportType  string    `json:"reportType"`
	Region      string    `json:"region"`
	GeneratedAt time.Time `json:"generatedAt"`
	DataCount   int       `json:"dataCount"`

	DailyTotalIncome     DailyTotalIncome    `json:"dailyTotalIncome"`
	PopularRoomTypesTop5 []PopularRoomType   `json:"popularRoomTypesTop5"`
	BranchPerformance    []BranchPerformance `json:"branchPerformance"`
	ReservationTrends    ReservationTrends   `json:"reservationTrends"`
}
