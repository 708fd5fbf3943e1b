package document

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename is the download name used for both text and PDF exports.
func Filename(c *model.Certificate, ext string) string {
	return fmt.Sprintf("certificate-%s-%s.%s", whitespaceRun.ReplaceAllString(strings.TrimSpace(c.FarmerName), "-"), c.CertificateID, ext)
}

// VerificationURL is the public page that checks a certificate.
func VerificationURL(baseURL, certificateID string) string {
	return strings.TrimRight(baseURL, "/") + "/verify/" + certificateID
}

// RenderText is the plain-text certificate; each field is on its own line.
func RenderText(c *model.Certificate, baseURL string) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%s: %s\n", label, value)
	}
	b.WriteString("GOVERNMENT VERIFICATION CERTIFICATE\n\n")
	line("Certificate ID", c.CertificateID)
	line("QR Code", c.QRCode)
	line("Status", string(c.Status))
	b.WriteString("\nFarmer Details:\n")
	line("Name", c.FarmerName)
	line("Farmer ID", c.FarmerID)
	line("Land ID/Plot Number", c.LandID)
	b.WriteString("\nFarm Details:\n")
	line("Crop Type", c.CropType)
	line("Land Area", c.LandArea)
	line("Trees Planted", c.TreesPlanted)
	line("Fertilizer Use", c.FertilizerUse)
	line("Fertilizer Amount", c.FertilizerAmount)
	line("Irrigation Practices", c.IrrigationPractices)
	b.WriteString("\nVerification Details:\n")
	line("Government Visit Date", c.VisitDate)
	line("Verifying Officer", c.OfficerName)
	line("Notes", c.Notes)
	line("Issue Date", c.DateIssued.UTC().Format(time.RFC3339))
	b.WriteString("\nThis certificate verifies the sustainable farming practices and land use of the above-mentioned farmer.\n\n")
	line("Verification URL", VerificationURL(baseURL, c.CertificateID))
	return b.String()
}
