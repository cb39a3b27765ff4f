// api/handlers/record_handler.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/middleware"
	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/internal/audit"
	"github.com/Annany2002/taxacurator/internal/editor"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// RecordHandler runs the generic record dialog of one entity schema.
type RecordHandler struct {
	Schema editor.EntitySchema
	GW     gateway.Gateway
	Audit  *audit.Writer
}

// NewRecordHandler creates a new RecordHandler for schema.
func NewRecordHandler(schema editor.EntitySchema, gw gateway.Gateway, w *audit.Writer) *RecordHandler {
	return &RecordHandler{Schema: schema, GW: gw, Audit: w}
}

func (h *RecordHandler) dialog(c *gin.Context) *editor.RecordDialog {
	return editor.NewRecordDialog(h.Schema, h.GW, h.Audit, middleware.SessionFrom(c))
}

func (h *RecordHandler) respondDraft(c *gin.Context, d *editor.RecordDialog) {
	c.JSON(http.StatusOK, models.RecordDraftResponse{Mode: d.Mode(), Draft: d.Draft(), Masters: d.Masters()})
}

// NewDraft returns an empty draft with the dialog's lookup lists.
func (h *RecordHandler) NewDraft(c *gin.Context) {
	d := h.dialog(c)
	if err := d.OpenAdd(c.Request.Context(), true); err != nil {
		_ = c.Error(err)
		return
	}
	h.respondDraft(c, d)
}

// GetDraft returns the stored row as an edit draft.
func (h *RecordHandler) GetDraft(c *gin.Context) {
	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), c.Param("id"), true); err != nil {
		customLog.Warnf("%s %q could not be opened: %v", h.Schema.Label, c.Param("id"), err)
		_ = c.Error(err)
		return
	}
	h.respondDraft(c, d)
}

// Create adds a row.
func (h *RecordHandler) Create(c *gin.Context) {
	var draft editor.RecordDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		customLog.Warnf("%s binding error: %v", h.Schema.Label, err)
		_ = c.Error(err)
		return
	}

	d := h.dialog(c)
	if err := d.OpenAdd(c.Request.Context(), false); err != nil {
		_ = c.Error(err)
		return
	}
	h.save(c, d, draft, http.StatusCreated, "added")
}

// Update saves changes to the row in the path.
func (h *RecordHandler) Update(c *gin.Context) {
	var draft editor.RecordDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		customLog.Warnf("%s binding error: %v", h.Schema.Label, err)
		_ = c.Error(err)
		return
	}

	d := h.dialog(c)
	if err := d.OpenEdit(c.Request.Context(), c.Param("id"), false); err != nil {
		_ = c.Error(err)
		return
	}
	h.save(c, d, draft, http.StatusOK, "updated")
}

func (h *RecordHandler) save(c *gin.Context, d *editor.RecordDialog, draft editor.RecordDraft, status int, verb string) {
	if err := d.Update(draft); err != nil {
		_ = c.Error(err)
		return
	}
	out, err := d.Save(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(status, models.SaveResponse{Message: h.message(verb), Outcome: out})
}

// Delete removes the row in the path.
func (h *RecordHandler) Delete(c *gin.Context) {
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
	c.JSON(http.StatusOK, models.SaveResponse{Message: h.message("deleted"), Outcome: out})
}

// message capitalises the schema label: "Publication added".
func (h *RecordHandler) message(verb string) string {
	label := h.Schema.Label
	if label == "" {
		return verb
	}
	return strings.ToUpper(label[:1]) + label[1:] + " " + verb
}
