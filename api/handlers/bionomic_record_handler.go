// api/handlers/bionomic_record_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/middleware"
	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/core"
	"github.com/Annany2002/taxacurator/internal/editor"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// BionomicRecordHandler runs the bionomic record dialog, one dialog per request.
type BionomicRecordHandler struct {
	GW    gateway.Gateway
	Audit *audit.Writer
}

// NewBionomicRecordHandler creates a new BionomicRecordHandler.
func NewBionomicRecordHandler(gw gateway.Gateway, w *audit.Writer) *BionomicRecordHandler {
	return &BionomicRecordHandler{GW: gw, Audit: w}
}

func (h *BionomicRecordHandler) dialog(c *gin.Context) *editor.BionomicRecordDialog {
	return editor.NewBionomicRecordDialog(h.GW, h.Audit, middleware.SessionFrom(c))
}

func recordID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w 'id': must be a positive integer", core.ErrInvalidParam)
	}
	return id, nil
}

// NewDraft returns an empty draft with the lookup lists of the add dialog.
func (h *BionomicRecordHandler) NewDraft(c *gin.Context) {
	d := h.dialog(c)
	if err := d.OpenAdd(c.Request.Context(), true); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BionomicRecordDraftResponse{Mode: d.Mode(), Draft: d.Draft(), Masters: d.Masters()})
}

// GetDraft returns the stored record as an edit draft with its lookup lists.
func (h *BionomicRecordHandler) GetDraft(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), id, true); err != nil {
		customLog.Warnf("Bionomic record %d could not be opened: %v", id, err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.BionomicRecordDraftResponse{Mode: d.Mode(), Draft: d.Draft(), Masters: d.Masters()})
}

// Create adds a bionomic record.
func (h *BionomicRecordHandler) Create(c *gin.Context) {
	var req models.BionomicRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Bionomic record binding error: %v", err)
		_ = c.Error(err)
		return
	}

	d := h.dialog(c)
	if err := d.OpenAdd(c.Request.Context(), false); err != nil {
		_ = c.Error(err)
		return
	}
	h.save(c, d, req, http.StatusCreated, "Bionomic record added")
}

// Update saves changes to the bionomic record in the path.
func (h *BionomicRecordHandler) Update(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req models.BionomicRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Bionomic record binding error: %v", err)
		_ = c.Error(err)
		return
	}

	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), id, false); err != nil {
		_ = c.Error(err)
		return
	}
	h.save(c, d, req, http.StatusOK, "Bionomic record updated")
}

func (h *BionomicRecordHandler) save(c *gin.Context, d *editor.BionomicRecordDialog, req models.BionomicRecordRequest, status int, message string) {
	if err := d.Update(req.BionomicRecordDraft); err != nil {
		_ = c.Error(err)
		return
	}
	for i, in := range req.NewDistribution {
		if err := d.AddDistribution(in); err != nil {
			_ = c.Error(fmt.Errorf("new_distribution[%d]: %w", i, err))
			return
		}
	}
	out, err := d.Save(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(status, models.SaveResponse{Message: message, Outcome: out})
}

// Delete removes the bionomic record in the path.
func (h *BionomicRecordHandler) Delete(c *gin.Context) {
	id, err := recordID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), id, false); err != nil {
		_ = c.Error(err)
		return
	}
	out, err := d.Delete(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.SaveResponse{Message: "Bionomic record deleted", Outcome: out})
}
