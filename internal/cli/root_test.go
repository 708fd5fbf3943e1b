package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shinyyama/carbon-credit-backend/internal/config"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/repository"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "certctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"issue", "list", "show", "verify", "revoke", "export", "credits"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	export, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)
	out := export.Flags().Lookup("output")
	require.NotNil(t, out)
	assert.Equal(t, "o", out.Shorthand)
}

type harness struct {
	t    *testing.T
	open Opener
	app  *App
}

func newHarness(t *testing.T) *harness {
	cfg := &config.Config{VerifyBaseURL: "https://verify.example.org", InitialLoginBalance: 42}
	app := NewApp(repository.NewMemoryKVStore(), cfg, zap.NewNop())
	return &harness{t: t, app: app, open: func(context.Context) (*App, error) { return app, nil }}
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := newRootCommand(h.open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func issueArgs() []string {
	return []string{"--format", "json", "issue",
		"--farmer-name", "Ravi Kumar", "--farmer-id", "F-001", "--land-id", "PLOT-17",
		"--crop", "rice", "--visit-date", "2024-06-10", "--officer", "S. Das"}
}

func TestIssueListVerifyRevoke(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(issueArgs()...)
	require.NoError(t, err)
	var c model.Certificate
	require.NoError(t, json.Unmarshal([]byte(out), &c))
	assert.Equal(t, model.CertificateStatusActive, c.Status)

	out, err = h.run("list", "--status", "active")
	require.NoError(t, err)
	assert.Contains(t, out, c.CertificateID)
	assert.Contains(t, out, "Ravi Kumar")

	out, err = h.run("verify", c.QRCode)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID: "+c.CertificateID)

	out, err = h.run("revoke", c.CertificateID)
	require.NoError(t, err)
	assert.Contains(t, out, "revoked")

	out, err = h.run("--format", "json", "verify", c.CertificateID)
	require.NoError(t, err)
	var res service.VerificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Valid)
	assert.Equal(t, service.ReasonRevoked, res.Reason)

	_, err = h.run("show", "CERT-NOPE")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestIssueFromFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "cert.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
farmerName: Meena Patel
farmerId: F-777
landId: PLOT-3
cropType: millet
visitDate: "2024-05-02"
officerName: A. Roy
`), 0o644))

	out, err := h.run("issue", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Meena Patel")

	_, err = h.run("issue", "--farmer-name", "Only Name")
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(issueArgs()...)
	require.NoError(t, err)
	var c model.Certificate
	require.NoError(t, json.Unmarshal([]byte(out), &c))

	dir := t.TempDir()
	_, err = h.run("export", c.CertificateID, "-o", dir, "--text")
	require.NoError(t, err)

	pdf, err := os.ReadFile(filepath.Join(dir, "certificate-Ravi-Kumar-"+c.CertificateID+".pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	txt, err := os.ReadFile(filepath.Join(dir, "certificate-Ravi-Kumar-"+c.CertificateID+".txt"))
	require.NoError(t, err)
	assert.Contains(t, string(txt), "Verification URL: https://verify.example.org/verify/"+c.CertificateID)
}

func TestCredits(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.Ledger.Credit(context.Background(), "u1", model.CreditEntry{Activity: "Rice cultivation", Credits: 20, Type: model.CreditTypeRice})
	require.NoError(t, err)

	out, err := h.run("credits", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 20")
	assert.Contains(t, out, "Rice cultivation")
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--format", "xml", "list")
	assert.Error(t, err)
}
