package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func NewIssueCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		d    model.CertificateDetails
		file string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new certificate",
		Long: `Issue a certificate from flags, or from a YAML file with the same
camelCase keys as the API (farmerName, farmerId, landId, ...).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(raw, &d); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
			}
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				c, err := app.Certs.Issue(cmd.Context(), d)
				if err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Certificate(c)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "YAML file with certificate details")
	f.StringVar(&d.FarmerName, "farmer-name", "", "farmer name")
	f.StringVar(&d.FarmerID, "farmer-id", "", "farmer id")
	f.StringVar(&d.LandID, "land-id", "", "land id or plot number")
	f.StringVar(&d.CropType, "crop", "", "crop type")
	f.StringVar(&d.LandArea, "area", "", "land area (acres)")
	f.StringVar(&d.TreesPlanted, "trees", "", "trees planted")
	f.StringVar(&d.FertilizerUse, "fertilizer", "", "fertilizer use")
	f.StringVar(&d.FertilizerAmount, "fertilizer-amount", "", "fertilizer amount")
	f.StringVar(&d.IrrigationPractices, "irrigation", "", "irrigation practices")
	f.StringVar(&d.VisitDate, "visit-date", "", "government visit date (YYYY-MM-DD)")
	f.StringVar(&d.OfficerName, "officer", "", "verifying officer")
	f.StringVar(&d.Notes, "notes", "", "notes")
	return cmd
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var filter service.CertificateFilter
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List certificates, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				list, err := app.Certs.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return formatter(rootOpts, cmd).Certificates(list)
			})
		},
	}
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "match farmer name, farmer id or certificate id")
	cmd.Flags().StringVar(&filter.Status, "status", "all", "all|active|revoked")
	return cmd
}

func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "show <certificate-id>",
		Short:        "Show one certificate",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				c, err := app.Certs.Find(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return formatter(rootOpts, cmd).Certificate(c)
			})
		},
	}
}

func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "verify <certificate-id|qr-token>",
		Short:        "Check whether a certificate is valid",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				res, err := app.Verifier.Resolve(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				text := "VALID"
				if !res.Valid {
					text = "INVALID (" + res.Reason + ")"
				}
				if res.Certificate != nil {
					text += fmt.Sprintf(": %s issued to %s (%s)", res.Certificate.CertificateID, res.Certificate.FarmerName, res.Certificate.FarmerID)
				}
				return formatter(rootOpts, cmd).Value(res, text)
			})
		},
	}
}

func NewRevokeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "revoke <certificate-id>",
		Short:        "Revoke a certificate",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				c, err := app.Certs.Revoke(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				return formatter(rootOpts, cmd).Value(c, c.CertificateID+" revoked")
			})
		},
	}
}

type exportResult struct {
	CertificateID string   `json:"certificateId"`
	Files         []string `json:"files"`
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		outDir   string
		withText bool
	)
	cmd := &cobra.Command{
		Use:          "export <certificate-id>",
		Short:        "Write the certificate PDF (and optionally the text export)",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				c, err := app.Certs.Find(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				exp, err := document.ExportCertificate(c, app.BaseURL)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
				res := exportResult{CertificateID: c.CertificateID}
				pdfPath := filepath.Join(outDir, exp.Filename)
				if err := os.WriteFile(pdfPath, exp.PDF, 0o644); err != nil {
					return err
				}
				res.Files = append(res.Files, pdfPath)
				if withText {
					txtPath := filepath.Join(outDir, document.Filename(c, "txt"))
					if err := os.WriteFile(txtPath, []byte(document.RenderText(c, app.BaseURL)), 0o644); err != nil {
						return err
					}
					res.Files = append(res.Files, txtPath)
				}
				return formatter(rootOpts, cmd).Value(res, strings.Join(res.Files, "\n"))
			})
		},
	}
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "output directory")
	cmd.Flags().BoolVar(&withText, "text", false, "also write the plain-text export")
	return cmd
}

func NewCreditsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "credits <user-id>",
		Short:        "Show a farmer's balance and credit history",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd.Context(), func(app *App) error {
				acc, err := app.Ledger.Account(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				var b strings.Builder
				fmt.Fprintf(&b, "Balance: %d", acc.Balance)
				for _, e := range acc.History {
					fmt.Fprintf(&b, "\n%s  %-6s  +%d  %s", e.Date.UTC().Format("2006-01-02"), e.Type, e.Credits, e.Activity)
				}
				return formatter(rootOpts, cmd).Value(acc, b.String())
			})
		},
	}
}
