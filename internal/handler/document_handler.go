package handler

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/carbon-credit-backend/internal/document"
)

type DocumentHandler struct{}

func NewDocumentHandler() *DocumentHandler {
	return &DocumentHandler{}
}

type ExtractResponse struct {
	document.FarmFields
	Text string `json:"text"`
}

// Extract reads the multipart "file" PDF and returns the recognised farm fields.
func (h *DocumentHandler) Extract(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "file is required"))
	}
	if fh.Size > maxDocumentBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", "document is too large"))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "cannot read file"))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "cannot read file"))
	}
	text, err := document.ExtractPDFText(data)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, NewErrorResponse("unreadable_pdf", "could not read text from the pdf"))
	}
	return c.JSON(http.StatusOK, ExtractResponse{FarmFields: document.ExtractFarmFields(text), Text: text})
}
