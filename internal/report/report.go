// Package report builds Excel exports of reservation data for admins.
package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"menza/internal/models"
	"menza/internal/store"
)

// MaxReportDays caps the exported date range.
const MaxReportDays = 92

var header = []string{"Date", "Time", "Duration (min)", "Status", "Reservation ID", "Student ID"}

// Exporter renders reservation reports.
type Exporter struct {
	store store.Store
}

// NewExporter constructs an exporter.
func NewExporter(st store.Store) *Exporter {
	return &Exporter{store: st}
}

// ActiveReservations writes an .xlsx of a canteen's active reservations in
// [from, to] (inclusive) to w, one sheet per canteen.
func (e *Exporter) ActiveReservations(ctx context.Context, canteenID string, from, to time.Time, w io.Writer) error {
	from = models.DateOf(from)
	to = models.DateOf(to)
	if to.Before(from) {
		return fmt.Errorf("report range end %s before start %s", to.Format(models.DateFormat), from.Format(models.DateFormat))
	}
	if int(to.Sub(from).Hours()/24) > MaxReportDays {
		return fmt.Errorf("report range exceeds maximum of %d days", MaxReportDays)
	}

	canteen, err := e.store.GetCanteen(ctx, canteenID)
	if err != nil {
		return fmt.Errorf("look up canteen: %w", err)
	}
	if canteen == nil {
		return fmt.Errorf("canteen %s not found", canteenID)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(canteen.Name)
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeader(f, sheet); err != nil {
		return err
	}

	row := 2
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		reservations, err := e.store.ListActiveReservationsByCanteenAndDate(ctx, canteenID, day)
		if err != nil {
			return fmt.Errorf("list reservations for %s: %w", day.Format(models.DateFormat), err)
		}
		for i := range reservations {
			r := &reservations[i]
			values := []interface{}{
				r.Date.Format(models.DateFormat),
				r.Time,
				r.Duration,
				r.Status,
				r.ID,
				r.StudentID,
			}
			for col, val := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, val); err != nil {
					return err
				}
			}
			row++
		}
	}

	return f.Write(w)
}

func writeHeader(f *excelize.File, sheet string) error {
	for i, col := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", endCell, style)
	}
	return nil
}

// sheetName truncates to Excel's 31-character sheet name limit.
func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
