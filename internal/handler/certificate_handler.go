package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
	"github.com/shinyyama/carbon-credit-backend/internal/model"
	"github.com/shinyyama/carbon-credit-backend/internal/service"
	"go.uber.org/zap"
)

type CertificateHandler struct {
	svc       service.CertificateService
	publisher document.Publisher
	baseURL   string
	logger    *zap.Logger
}

// NewCertificateHandler serves the officials API. publisher may be nil, in
// which case Publish answers 503.
func NewCertificateHandler(svc service.CertificateService, publisher document.Publisher, baseURL string, logger *zap.Logger) *CertificateHandler {
	return &CertificateHandler{svc: svc, publisher: publisher, baseURL: baseURL, logger: logger}
}

type CertificateListResponse struct {
	Certificates []model.Certificate `json:"certificates"`
	Total        int                 `json:"total"`
}

func (h *CertificateHandler) Create(c echo.Context) error {
	var req model.CertificateDetails
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	cert, err := h.svc.Issue(c.Request().Context(), req)
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate")
	}
	return c.JSON(http.StatusCreated, cert)
}

func (h *CertificateHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context(), service.CertificateFilter{
		Search: c.QueryParam("q"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificates")
	}
	return c.JSON(http.StatusOK, CertificateListResponse{Certificates: list, Total: len(list)})
}

func (h *CertificateHandler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate stats")
	}
	return c.JSON(http.StatusOK, st)
}

func (h *CertificateHandler) Get(c echo.Context) error {
	cert, err := h.svc.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate")
	}
	return c.JSON(http.StatusOK, cert)
}

func (h *CertificateHandler) Revoke(c echo.Context) error {
	cert, err := h.svc.Revoke(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate")
	}
	return c.JSON(http.StatusOK, cert)
}

func (h *CertificateHandler) PDF(c echo.Context) error {
	cert, err := h.svc.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate")
	}
	exp, err := document.ExportCertificate(cert, h.baseURL)
	if err != nil {
		h.logger.Error("certificate pdf failed", zap.String("certificate_id", cert.CertificateID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to render pdf"))
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", exp.Filename))
	return c.Blob(http.StatusOK, "application/pdf", exp.PDF)
}

func (h *CertificateHandler) Text(c echo.Context) error {
	cert, err := h.svc.Find(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate")
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", document.Filename(cert, "txt")))
	return c.String(http.StatusOK, document.RenderText(cert, h.baseURL))
}

type PublishResponse struct {
	CertificateID string `json:"certificateId"`
	URL           string `json:"url"`
}

func (h *CertificateHandler) Publish(c echo.Context) error {
	if h.publisher == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "document storage is not configured"))
	}
	ctx := c.Request().Context()
	cert, err := h.svc.Find(ctx, c.Param("id"))
	if err != nil {
		return writeServiceError(c, h.logger, err, "certificate")
	}
	exp, err := document.ExportCertificate(cert, h.baseURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to render pdf"))
	}
	url, err := h.publisher.Publish(ctx, "certificates/"+exp.Filename, "application/pdf", exp.PDF)
	if err != nil {
		h.logger.Error("certificate publish failed", zap.String("certificate_id", cert.CertificateID), zap.Error(err))
		return c.JSON(http.StatusBadGateway, NewErrorResponse("upload_failed", "failed to publish certificate"))
	}
	h.logger.Info("certificate published", zap.String("certificate_id", cert.CertificateID), zap.String("url", url))
	return c.JSON(http.StatusOK, PublishResponse{CertificateID: cert.CertificateID, URL: url})
}
