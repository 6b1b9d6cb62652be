package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/axis-ops/ticket-service/internal/api/dto"
	"github.com/axis-ops/ticket-service/internal/auth"
	"github.com/axis-ops/ticket-service/internal/service"
	apperrors "github.com/axis-ops/ticket-service/pkg/util"
)

// DataHandler serves the audit trail, CSV exports, and bulk import.
type DataHandler struct {
	tickets  *service.TicketService
	exports  *service.ExportService
	validate *validator.Validate
}

// NewDataHandler constructs handler.
func NewDataHandler(tickets *service.TicketService, exports *service.ExportService) *DataHandler {
	return &DataHandler{tickets: tickets, exports: exports, validate: validator.New()}
}

// AuditLog GET /audit.
func (h *DataHandler) AuditLog(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	entries, err := h.tickets.AuditLog(c.UserContext(), principal.Username, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// ExportSummary GET /exports/summary.csv.
func (h *DataHandler) ExportSummary(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	content, err := h.exports.SummaryCSV(c.UserContext(), principal.Username)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("axis_tickets_%s_%s.csv", principal.Username, time.Now().Format("20060102_150405"))
	return sendCSV(c, filename, content)
}

// ExportJira GET /exports/jira.csv.
func (h *DataHandler) ExportJira(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	content, err := h.exports.JiraCSV(c.UserContext(), principal.Username)
	if err != nil {
		return err
	}
	filename := "jira_import_" + time.Now().Format("20060102_150405") + ".csv"
	return sendCSV(c, filename, content)
}

// EmailExport POST /exports/email.
func (h *DataHandler) EmailExport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.EmailExportRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewValidationError("valid recipient required", nil)
	}
	if err := h.exports.EmailExport(c.UserContext(), principal.Username, req.Recipient, req.Kind); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sent_to": req.Recipient}})
}

// ImportCSV POST /tickets/import. The CSV arrives either as a multipart file
// named "file" or as the raw request body; ?sync=true also mirrors each
// imported ticket to the tracker.
func (h *DataHandler) ImportCSV(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	content := c.Body()
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable upload", nil)
		}
		defer f.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(f); err != nil {
			return apperrors.NewValidationError("unreadable upload", nil)
		}
		content = buf.Bytes()
	}
	if len(content) == 0 {
		return apperrors.NewValidationError("empty CSV upload", nil)
	}

	rows, err := service.ParseImportCSV(bytes.NewReader(content))
	if err != nil {
		return err
	}

	syncAfter := c.QueryBool("sync", false)
	result, err := h.tickets.BulkImport(c.UserContext(), principal.Username, rows, syncAfter)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.ImportResponse{
		Imported: result.Imported,
		Synced:   result.Synced,
		Failed:   result.Failed,
	}})
}

func sendCSV(c *fiber.Ctx, filename string, content []byte) error {
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}
