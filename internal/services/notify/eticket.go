package notify

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
)

// BuildETicketPDF renders the printable e-ticket.
func BuildETicketPDF(t *Ticket) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "E-TICKET", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(0, 14, t.ConfirmationCode, "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(40, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}

	row("Passenger", t.PassengerName)
	row("Route", fmt.Sprintf("%s - %s", t.Origin, t.Destination))
	row("Date", t.Date)
	row("Departure", t.Time)
	row("Seats", strings.Join(t.SeatNumbers, ", "))
	row("Total", t.Total.StringFixed(2))

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Booking ref: %s", t.BookingID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Present this ticket at boarding.", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
