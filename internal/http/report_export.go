package httpapi

import (
	"fmt"

	"hotel-data-sync/internal/models"

	"github.com/xuri/excelize/v2"
)

var (
	incomeHeader = []string{"Report Date", "Region", "Total Income", "Total Reservations", "Avg Price Per Night", "Currency"}
	roomHeader   = []string{"Ranking", "Room Type ID", "Room Type Name", "Reservation Count", "Total Revenue"}
	branchHeader = []string{"Branch ID", "Branch Name", "Reservation Count", "Total Revenue", "Avg Revenue Per Reservation"}
	trendsHeader = []string{"Total Reservations", "Confirmed", "Cancelled", "Completion Rate (%)"}
)

// GenerateReportWorkbook 生成统计报表 Excel 文件（每类统计一个工作表）
func GenerateReportWorkbook(report *models.ComprehensiveReport) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteToBuffer needs the file to be open

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	income := report.DailyTotalIncome
	if err := writeSheet(f, "Daily Total Income", headerStyle, incomeHeader, [][]any{{
		income.ReportDate.Format("2006-01-02"),
		income.Region,
		income.TotalIncome,
		income.TotalReservations,
		income.AvgPricePerNight,
		income.Currency,
	}}); err != nil {
		f.Close()
		return nil, err
	}

	roomRows := make([][]any, 0, len(report.PopularRoomTypesTop5))
	for _, rt := range report.PopularRoomTypesTop5 {
		roomRows = append(roomRows, []any{rt.Ranking, rt.RoomTypeID, rt.RoomTypeName, rt.ReservationCount, rt.TotalRevenue})
	}
	if err := writeSheet(f, "Popular Room Types", headerStyle, roomHeader, roomRows); err != nil {
		f.Close()
		return nil, err
	}

	branchRows := make([][]any, 0, len(report.BranchPerformance))
	for _, b := range report.BranchPerformance {
		branchRows = append(branchRows, []any{b.BranchID, b.BranchName, b.ReservationCount, b.TotalRevenue, b.AvgRevenuePerReservation})
	}
	if err := writeSheet(f, "Branch Performance", headerStyle, branchHeader, branchRows); err != nil {
		f.Close()
		return nil, err
	}

	trends := report.ReservationTrends
	if err := writeSheet(f, "Reservation Trends", headerStyle, trendsHeader, [][]any{{
		trends.TotalReservations,
		trends.ConfirmedReservations,
		trends.CancelledReservations,
		trends.CompletionRate,
	}}); err != nil {
		f.Close()
		return nil, err
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheetName string, headerStyle int, headers []string, rows [][]any) error {
	if _, err := f.NewSheet(sheetName); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
		if err := f.SetColWidth(sheetName, columnName(col+1), columnName(col+1), 22); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func columnName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}
