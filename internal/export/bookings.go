package export

import (
	"fmt"
	"io"

	"stayhub/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the booking report is written to.
const SheetName = "Bookings"

var headers = []string{
	"Booking #", "Check-in", "Check-out", "Nights", "Guests",
	"Status", "Payment", "Price/night", "Total", "Currency", "Created (UTC)",
}

var statusColors = map[models.BookingStatus]string{
	models.StatusCreated:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusCancelled: "#F8CBAD",
	models.StatusRejected:  "#F8CBAD",
	models.StatusExpired:   "#D9D9D9",
}

// WriteBookings renders the bookings of one room as an XLSX workbook into w.
// Row 1 is the room title, row 2 the header, bookings start at row 3.
func WriteBookings(w io.Writer, room *models.Room, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	// Переименовываем стандартный лист
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("error renaming sheet: %w", err)
	}

	_ = f.SetCellValue(SheetName, "A1", fmt.Sprintf("%s (#%d), %s", room.Title, room.ID, room.City))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	_ = f.SetCellStyle(SheetName, "A1", "A1", titleStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.MergeCell(SheetName, "A1", lastCol+"1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(SheetName, cell, h)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	styles := make(map[models.BookingStatus]int, len(statusColors))
	for status, color := range statusColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[status] = id
		}
	}

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.BookingNumber,
			models.FormatDate(b.CheckIn),
			models.FormatDate(b.CheckOut),
			b.Range().Nights(),
			b.GuestCnt,
			string(b.Status),
			string(b.PaymentStatus),
			majorUnits(b.PricePerNight),
			majorUnits(b.TotalAmount),
			string(b.Currency),
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
		if style, ok := styles[b.Status]; ok {
			end, _ := excelize.CoordinatesToCellName(len(headers), row)
			_ = f.SetCellStyle(SheetName, start, end, style)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 16)
	_ = f.SetColWidth(SheetName, "B", lastCol, 14)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// majorUnits converts minor units to the display amount.
func majorUnits(minor int64) float64 {
	return float64(minor) / 100
}
