// api/handlers/audit_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/core"
)

// AuditHandler serves the audit log.
type AuditHandler struct {
	Audit *audit.Writer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(w *audit.Writer) *AuditHandler {
	return &AuditHandler{Audit: w}
}

// ListEntries returns the newest entries, optionally for one table and row.
func (h *AuditHandler) ListEntries(c *gin.Context) {
	table := c.Query("table")
	if table != "" && !core.IsValidIdentifier(table) {
		_ = c.Error(fmt.Errorf("%w 'table': '%s' is not a valid table name", core.ErrInvalidParam, table))
		return
	}
	limit := 0
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > core.MaxPageSize {
			_ = c.Error(fmt.Errorf("%w 'limit': must be between 1 and %d", core.ErrInvalidParam, core.MaxPageSize))
			return
		}
		limit = n
	}

	entries, err := h.Audit.List(c.Request.Context(), table, c.Query("row_id"), limit)
	if err != nil {
		customLog.Warnf("Audit log listing failed: %v", err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.AuditLogResponse{Entries: entries, Count: len(entries)})
}
