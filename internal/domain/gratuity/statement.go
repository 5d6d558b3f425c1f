package gratuity

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Statement struct {
	Record      BenefitRecord
	Employee    EmployeeTerms
	GeneratedAt time.Time
}

// WriteStatement renders a one-page A4 gratuity statement. Amounts are
// rounded to two decimals here and nowhere else.
func WriteStatement(w io.Writer, st Statement) error {
	rec := st.Record
	currency := st.Employee.Currency

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("End of service gratuity statement", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "End of Service Gratuity Statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.CellFormat(60, 8, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, value, "", 1, "L", false, 0, "")
	}
	line("Employee", st.Employee.FullName)
	line("Employee ID", rec.EmployeeID)
	line("Record ID", rec.ID)
	line("Status", statusLabel(rec.Status))
	pdf.Ln(4)
	line("Years of service", rec.YearsOfService.StringFixed(4))
	line("Basic salary", fmt.Sprintf("%s %s", rec.BasicSalary.StringFixed(2), currency))

	pdf.SetFont("Helvetica", "B", 12)
	line("Gratuity amount", fmt.Sprintf("%s %s", rec.GratuityAmount.StringFixed(2), currency))
	pdf.SetFont("Helvetica", "", 12)
	line("Calculated at", rec.CalculatedAt.Format("2006-01-02"))
	if rec.PaidOutAt != nil {
		line("Paid out at", rec.PaidOutAt.Format("2006-01-02"))
		if rec.PayoutReference != "" {
			line("Payout reference", rec.PayoutReference)
		}
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "Half of basic salary per year for the first five years of service, "+
		"full basic salary per year thereafter. No entitlement below one year.", "", "L", false)
	pdf.Ln(2)
	pdf.Cell(0, 5, "Generated "+st.GeneratedAt.UTC().Format(time.RFC3339))

	return pdf.Output(w)
}

func statusLabel(status string) string {
	switch status {
	case StatusPaidOut:
		return "Paid out"
	case StatusAccruing:
		return "Accruing"
	default:
		return status
	}
}
