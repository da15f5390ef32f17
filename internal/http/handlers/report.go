package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pao-report-backend/internal/http/response"
	"github.com/yungbote/pao-report-backend/internal/platform/apierr"
	"github.com/yungbote/pao-report-backend/internal/platform/ctxutil"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
	"github.com/yungbote/pao-report-backend/internal/services"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type ReportHandler struct {
	log     *logger.Logger
	reports services.ReportService
}

func NewReportHandler(log *logger.Logger, reports services.ReportService) *ReportHandler {
	return &ReportHandler{log: log.With("handler", "ReportHandler"), reports: reports}
}

type paoRequest struct {
	PaoID   string   `json:"pao_id"`
	Formats []string `json:"formats"`
}

type generateResponse struct {
	URLDocx       string `json:"url_docx,omitempty"`
	URLPDF        string `json:"url_pdf,omitempty"`
	SignedURLDocx string `json:"signed_url_docx,omitempty"`
	SignedURLPDF  string `json:"signed_url_pdf,omitempty"`
	Pages         int    `json:"pages,omitempty"`
}

// POST /generar-pao-directo
func (h *ReportHandler) GenerateDirect(c *gin.Context) {
	req, ok := h.bindPaoRequest(c)
	if !ok {
		return
	}
	res, err := h.reports.Generate(c.Request.Context(), services.GenerateRequest{
		PaoID:   req.PaoID,
		Formats: []services.Format{services.FormatPDF},
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"url_pdf": res.PDFURL})
}

// POST /generar-pao
func (h *ReportHandler) Generate(c *gin.Context) {
	req, ok := h.bindPaoRequest(c)
	if !ok {
		return
	}
	formats, err := services.ParseFormats(req.Formats)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.reports.Generate(c.Request.Context(), services.GenerateRequest{
		PaoID:   req.PaoID,
		Formats: formats,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, generateResponse{
		URLDocx:       res.DocxURL,
		URLPDF:        res.PDFURL,
		SignedURLDocx: res.SignedDocxURL,
		SignedURLPDF:  res.SignedPDFURL,
		Pages:         res.Pages,
	})
}

// POST /api/pao/context
func (h *ReportHandler) PreviewContext(c *gin.Context) {
	req, ok := h.bindPaoRequest(c)
	if !ok {
		return
	}
	tc, err := h.reports.BuildContext(c.Request.Context(), req.PaoID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.RespondOK(c, gin.H{"context": tc})
}

// POST /generar
func (h *ReportHandler) RenderInline(c *gin.Context) {
	var req services.InlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	docx, name, err := h.reports.RenderInline(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, docxContentType, docx)
}

// bindPaoRequest decodes the body and enforces a non-empty pao_id. An empty
// body is treated as a missing pao_id.
func (h *ReportHandler) bindPaoRequest(c *gin.Context) (paoRequest, bool) {
	var req paoRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return req, false
	}
	req.PaoID = strings.TrimSpace(req.PaoID)
	if req.PaoID == "" {
		h.fail(c, apierr.BadRequest("missing_pao_id", "Falta el pao_id"))
		return req, false
	}
	return req, true
}

func (h *ReportHandler) fail(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	fields := append([]interface{}{"path", c.FullPath(), "status", status, "error", err}, ctxutil.LogFields(c.Request.Context())...)
	if status >= http.StatusInternalServerError {
		h.log.Error("Report request failed", fields...)
	} else {
		h.log.Warn("Report request rejected", fields...)
	}
	response.RespondAPIError(c, err)
}
