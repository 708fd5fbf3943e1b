package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

func (f *OutputFormatter) writeJSON(v interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *OutputFormatter) Certificate(c *model.Certificate) error {
	if f.JSON() {
		return f.writeJSON(c)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Certificate ID", c.CertificateID},
		{"QR Code", c.QRCode},
		{"Status", string(c.Status)},
		{"Issued", c.DateIssued.UTC().Format(time.RFC3339)},
		{"Farmer", c.FarmerName},
		{"Farmer ID", c.FarmerID},
		{"Land ID", c.LandID},
		{"Crop", c.CropType},
		{"Land Area", c.LandArea},
		{"Trees Planted", c.TreesPlanted},
		{"Fertilizer", c.FertilizerUse},
		{"Fertilizer Amount", c.FertilizerAmount},
		{"Irrigation", c.IrrigationPractices},
		{"Visit Date", c.VisitDate},
		{"Officer", c.OfficerName},
		{"Notes", c.Notes},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func (f *OutputFormatter) Certificates(list []model.Certificate) error {
	if f.JSON() {
		return f.writeJSON(list)
	}
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFARMER\tFARMER ID\tISSUED")
	for _, c := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.CertificateID, c.Status, c.FarmerName, c.FarmerID, c.DateIssued.UTC().Format("2006-01-02"))
	}
	return tw.Flush()
}

func (f *OutputFormatter) Value(v interface{}, text string) error {
	if f.JSON() {
		return f.writeJSON(v)
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}
