// api/handlers/scientific_name_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/middleware"
	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/editor"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// ScientificNameHandler runs the scientific name dialog, one dialog per request.
type ScientificNameHandler struct {
	GW    gateway.Gateway
	Audit *audit.Writer
}

// NewScientificNameHandler creates a new ScientificNameHandler.
func NewScientificNameHandler(gw gateway.Gateway, w *audit.Writer) *ScientificNameHandler {
	return &ScientificNameHandler{GW: gw, Audit: w}
}

func (h *ScientificNameHandler) dialog(c *gin.Context) *editor.ScientificNameDialog {
	return editor.NewScientificNameDialog(h.GW, h.Audit, middleware.SessionFrom(c))
}

// NewDraft returns an empty draft with the lookup lists of the add dialog.
func (h *ScientificNameHandler) NewDraft(c *gin.Context) {
	d := h.dialog(c)
	if err := d.OpenAdd(c.Request.Context(), true); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ScientificNameDraftResponse{Mode: d.Mode(), Draft: d.Draft(), Masters: d.Masters()})
}

// GetDraft returns the stored name as an edit draft with its lookup lists.
func (h *ScientificNameHandler) GetDraft(c *gin.Context) {
	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), c.Param("id"), true); err != nil {
		customLog.Warnf("Scientific name %q could not be opened: %v", c.Param("id"), err)
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ScientificNameDraftResponse{Mode: d.Mode(), Draft: d.Draft(), Masters: d.Masters()})
}

// Create adds a scientific name.
func (h *ScientificNameHandler) Create(c *gin.Context) {
	var draft editor.ScientificNameDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		customLog.Warnf("Scientific name binding error: %v", err)
		_ = c.Error(err)
		return
	}

	d := h.dialog(c)
	if err := d.OpenAdd(c.Request.Context(), false); err != nil {
		_ = c.Error(err)
		return
	}
	h.save(c, d, draft, http.StatusCreated, "Scientific name added")
}

// Update saves changes to the scientific name in the path.
func (h *ScientificNameHandler) Update(c *gin.Context) {
	var draft editor.ScientificNameDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		customLog.Warnf("Scientific name binding error: %v", err)
		_ = c.Error(err)
		return
	}

	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), c.Param("id"), false); err != nil {
		_ = c.Error(err)
		return
	}
	h.save(c, d, draft, http.StatusOK, "Scientific name updated")
}

func (h *ScientificNameHandler) save(c *gin.Context, d *editor.ScientificNameDialog, draft editor.ScientificNameDraft, status int, message string) {
	if err := d.Update(draft); err != nil {
		_ = c.Error(err)
		return
	}
	out, err := d.Save(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(status, models.SaveResponse{Message: message, Outcome: out})
}

// Delete removes the scientific name in the path.
func (h *ScientificNameHandler) Delete(c *gin.Context) {
	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), c.Param("id"), false); err != nil {
		_ = c.Error(err)
		return
	}
	out, err := d.Delete(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.SaveResponse{Message: "Scientific name deleted", Outcome: out})
}
