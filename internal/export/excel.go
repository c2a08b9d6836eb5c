package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"reservio/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Reservations"

var columns = []string{"ID", "Customer", "Start", "End", "Status", "Created", "Modified"}

// BuildReservationsWorkbook renders the reservations of a period into a
// single-sheet workbook, one row per reservation. The caller owns closing
// the returned file.
func BuildReservationsWorkbook(from, to time.Time, reservations []models.ReservationView) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("Reservations %s - %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.MergeCell(sheetName, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	for i, name := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, name)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A2", "G2", headerStyle)

	for i, r := range reservations {
		row := i + 3
		values := []any{
			r.ID,
			r.CustomerID,
			r.StartDate.Format(time.RFC3339),
			r.EndDate.Format(time.RFC3339),
			r.Status,
			r.CreatedAt.Format(time.RFC3339),
			r.ModifiedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "G", 22)
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// SaveReservationsReport writes the workbook to dir and returns the file
// path.
func SaveReservationsReport(dir string, from, to time.Time, reservations []models.ReservationView) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f, err := BuildReservationsWorkbook(from, to, reservations)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("reservations_%s_to_%s.xlsx",
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	filePath := filepath.Join(dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return filePath, nil
}
