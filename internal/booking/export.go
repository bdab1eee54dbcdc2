package booking

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Bookings"

var exportHeader = []interface{}{
	"ID", "User ID", "Venue ID", "Court", "Sport", "Start", "End", "Hours", "Price", "Status", "Created",
}

// writeWorkbook renders bookings as a single-sheet xlsx with a revenue total
// over bookings that were not cancelled.
func writeWorkbook(w io.Writer, bookings []Booking, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return err
	}

	const layout = "2006-01-02 15:04"
	var revenue float64
	for i, b := range bookings {
		row := []interface{}{
			b.ID, b.UserID, b.VenueID, b.CourtName, b.Sport,
			b.Start.In(loc).Format(layout), b.End.In(loc).Format(layout),
			b.DurationHours, b.Price, string(b.Status), b.CreatedAt.In(loc).Format(layout),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
		if b.Status != StatusCancelled {
			revenue += b.Price
		}
	}

	totalRow := len(bookings) + 3
	if err := f.SetCellValue(exportSheet, fmt.Sprintf("H%d", totalRow), "Revenue"); err != nil {
		return err
	}
	if err := f.SetCellValue(exportSheet, fmt.Sprintf("I%d", totalRow), revenue); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}
