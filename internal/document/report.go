package document

import (
	"fmt"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

// Report is the MRV (monitoring, reporting and verification) summary for one farmer.
type Report struct {
	UserName    string
	Email       string
	Balance     int64
	Totals      map[model.CreditType]int64
	Entries     []model.CreditEntry
	GeneratedAt time.Time
}

var reportTypes = []model.CreditType{model.CreditTypeRice, model.CreditTypeTrees, model.CreditTypeOther}

func RenderReportPDF(r Report) ([]byte, error) {
	pdf := newDocument(r.GeneratedAt)

	pdf.SetFont(fontFamily, "B", 18)
	pdf.Text(20, 20, "MRV Carbon Credit Report")

	pdf.SetFont(fontFamily, "", 12)
	pdf.Text(20, 32, fmt.Sprintf("Farmer: %s (%s)", r.UserName, r.Email))
	pdf.Text(20, 39, "Generated: "+r.GeneratedAt.UTC().Format(time.RFC3339))
	pdf.Text(20, 46, fmt.Sprintf("Current Balance: %d credits", r.Balance))

	y := 58.0
	pdf.Text(20, y, "Credits by activity type:")
	for _, t := range reportTypes {
		y += 7
		pdf.Text(30, y, fmt.Sprintf("%s: %d", t, r.Totals[t]))
	}

	y += 12
	pdf.SetFont(fontFamily, "B", 12)
	pdf.Text(20, y, "History")
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetY(y + 3)
	for _, e := range r.Entries {
		pdf.SetX(20)
		pdf.CellFormat(30, 6, e.Date.UTC().Format("2006-01-02"), "", 0, "L", false, 0, "")
		pdf.CellFormat(110, 6, e.Activity, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, string(e.Type), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("+%d", e.Credits), "", 1, "R", false, 0, "")
	}
	return output(pdf)
}
