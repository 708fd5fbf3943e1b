package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

// Export bundles a rendered certificate with the QR image embedded in it.
type Export struct {
	PDF      []byte
	QRPNG    []byte
	Payload  VerificationPayload
	Filename string
}

func ExportCertificate(c *model.Certificate, baseURL string) (*Export, error) {
	payload := PayloadFor(c)
	qr, err := EncodeQR(payload.String())
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	pdfBytes, err := renderCertificatePDF(c, baseURL, qr)
	if err != nil {
		return nil, err
	}
	return &Export{PDF: pdfBytes, QRPNG: qr, Payload: payload, Filename: Filename(c, "pdf")}, nil
}

func renderCertificatePDF(c *model.Certificate, baseURL string, qr []byte) ([]byte, error) {
	pdf := newDocument(c.DateIssued)
	text := pdf.Text

	pdf.SetFont(fontFamily, "B", 18)
	text(20, 20, "Government Verification Certificate")

	pdf.SetFont(fontFamily, "", 12)
	text(20, 35, "Certificate ID: "+c.CertificateID)
	text(20, 42, "Issue Date: "+c.DateIssued.UTC().Format("January 2, 2006"))
	text(20, 49, "QR Code: "+c.QRCode)
	text(20, 56, "Status: "+string(c.Status))

	text(20, 69, "Farmer Details:")
	text(30, 77, "Name: "+c.FarmerName)
	text(30, 84, "Farmer ID: "+c.FarmerID)
	text(30, 91, "Land ID: "+c.LandID)

	text(20, 104, "Farm Details:")
	text(30, 112, "Crop Type: "+c.CropType)
	text(30, 119, "Land Area: "+c.LandArea)
	text(30, 126, "Trees Planted: "+c.TreesPlanted)
	text(30, 133, fmt.Sprintf("Fertilizer: %s (%s)", c.FertilizerUse, c.FertilizerAmount))
	text(30, 140, "Irrigation: "+c.IrrigationPractices)

	text(20, 154, "Verification Details:")
	text(30, 162, "Visit Date: "+c.VisitDate)
	text(30, 169, "Officer: "+c.OfficerName)
	pdf.SetXY(29, 172)
	pdf.MultiCell(160, 6, "Notes: "+c.Notes, "", "L", false)

	pdf.SetFont(fontFamily, "", 9)
	pdf.SetXY(20, 270)
	pdf.CellFormat(0, 5, "Verify at "+VerificationURL(baseURL, c.CertificateID), "", 0, "L", false, 0, "")

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 150, 30, 40, 40, false, opts, 0, "")

	return output(pdf)
}

// newDocument returns an uncompressed A4 page set in the active UTF-8 font family.
func newDocument(created time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	registerFonts(pdf)
	pdf.SetCreator("carbon-credit-backend", false)
	if !created.IsZero() {
		pdf.SetCreationDate(created)
	}
	pdf.AddPage()
	return pdf
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
