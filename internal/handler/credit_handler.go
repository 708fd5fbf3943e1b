package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/location"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

const maxDocumentBytes = 10 << 20

type CreditHandler struct {
	ledger      service.LedgerService
	submissions service.SubmissionService
	validations service.CertificateValidationService
	reports     service.ReportService
	logger      *zap.Logger
}

func NewCreditHandler(
	ledger service.LedgerService,
	submissions service.SubmissionService,
	validations service.CertificateValidationService,
	reports service.ReportService,
	logger *zap.Logger,
) *CreditHandler {
	return &CreditHandler{ledger: ledger, submissions: submissions, validations: validations, reports: reports, logger: logger}
}

type CreditEntryResponse struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	Activity string          `json:"activity"`
	Credits  int64           `json:"credits"`
	Type     string          `json:"type"`
	Location *model.Location `json:"location,omitempty"`
	Where    string          `json:"coordinates,omitempty"`
}

type CreditsResponse struct {
	Balance int64                 `json:"carbonBalance"`
	History []CreditEntryResponse `json:"history"`
}

func (h *CreditHandler) Credits(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	acc, err := h.ledger.Account(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, h.logger, err, "credits")
	}
	resp := CreditsResponse{Balance: acc.Balance, History: make([]CreditEntryResponse, 0, len(acc.History))}
	// newest first, like the dashboard shows it
	for i := len(acc.History) - 1; i >= 0; i-- {
		resp.History = append(resp.History, toCreditEntryResponse(acc.History[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func toCreditEntryResponse(e model.CreditEntry) CreditEntryResponse {
	r := CreditEntryResponse{
		ID:       e.ID,
		Date:     e.Date.UTC().Format(time.RFC3339),
		Activity: e.Activity,
		Credits:  e.Credits,
		Type:     string(e.Type),
		Location: e.Location,
	}
	if e.Location != nil {
		r.Where = location.FormatCoordinates(e.Location.Lat, e.Location.Lng)
	}
	return r
}

// Submit accepts multipart/form-data with fields area, trees, cropType,
// optional lat/lng, files "photos" and an optional PDF "document".
func (h *CreditHandler) Submit(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "expected multipart form"))
	}
	in := service.FarmSubmission{
		Area:     c.FormValue("area"),
		Trees:    c.FormValue("trees"),
		CropType: c.FormValue("cropType"),
	}
	for _, fh := range form.File["photos"] {
		in.Photos = append(in.Photos, location.PhotoRef{
			Name:        fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
		})
	}
	if geo, ok := parseGeo(c.FormValue("lat"), c.FormValue("lng")); ok {
		in.Geo = geo
	}
	if docs := form.File["document"]; len(docs) > 0 {
		in.DocumentName = docs[0].Filename
		text, err := h.readDocument(docs[0])
		if err != nil {
			h.logger.Warn("document text unavailable", zap.String("uid", uid), zap.String("document", docs[0].Filename), zap.Error(err))
		}
		in.DocumentText = text
	}

	res, err := h.submissions.Submit(c.Request().Context(), uid, in)
	if err != nil {
		return writeServiceError(c, h.logger, err, "submission")
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *CreditHandler) readDocument(fh *multipart.FileHeader) (string, error) {
	if fh.Size > maxDocumentBytes {
		return "", fmt.Errorf("document is larger than %d bytes", maxDocumentBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
	if err != nil {
		return "", err
	}
	return document.ExtractPDFText(data)
}

func parseGeo(lat, lng string) (*model.Location, bool) {
	if lat == "" || lng == "" {
		return nil, false
	}
	la, err1 := strconv.ParseFloat(lat, 64)
	ln, err2 := strconv.ParseFloat(lng, 64)
	if err1 != nil || err2 != nil || la < -90 || la > 90 || ln < -180 || ln > 180 {
		return nil, false
	}
	return &model.Location{Lat: la, Lng: ln}, true
}

type validateCertificateRequest struct {
	Token string `json:"token"`
}

func (h *CreditHandler) ValidateCertificate(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req validateCertificateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "token is required"))
	}
	out, err := h.validations.Validate(c.Request().Context(), uid, req.Token)
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate validation")
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CreditHandler) Report(c echo.Context) error {
	uid := currentUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	r, err := h.reports.MRVReport(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, h.logger, err, "report")
	}
	pdf, err := document.RenderReportPDF(*r)
	if err != nil {
		h.logger.Error("report pdf failed", zap.String("uid", uid), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to render report"))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="mrv-report.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

type estimateRequest struct {
	Area  string `json:"area"`
	Trees string `json:"trees"`
}

type EstimateResponse struct {
	Area    float64 `json:"area"`
	Trees   float64 `json:"trees"`
	Credits int64   `json:"credits"`
}

// Estimate runs the calculator without touching the ledger.
func (h *CreditHandler) Estimate(c echo.Context) error {
	var req estimateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := service.CheckFarmInput(req.Area, req.Trees); err != nil {
		return writeServiceError(c, h.logger, err, "estimate")
	}
	area, trees := service.ParseArea(req.Area), service.ParseTreeCount(req.Trees)
	return c.JSON(http.StatusOK, EstimateResponse{Area: area, Trees: trees, Credits: service.ComputeCredits(area, trees)})
}
