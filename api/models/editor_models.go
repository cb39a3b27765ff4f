// api/models/editor_models.go
package models

import (
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/editor"
)

// ScientificNameDraftResponse is returned by GET /scientific-names/:id/draft.
type ScientificNameDraftResponse struct {
	Mode    editor.Mode                `json:"mode"`
	Draft   editor.ScientificNameDraft `json:"draft"`
	Masters editor.Masters             `json:"masters"`
}

// BionomicRecordDraftResponse is returned by GET /bionomic-records/:id/draft.
type BionomicRecordDraftResponse struct {
	Mode    editor.Mode                `json:"mode"`
	Draft   editor.BionomicRecordDraft `json:"draft"`
	Masters editor.Masters             `json:"masters"`
}

// RecordDraftResponse is returned by GET /<console>/:id/draft for the
// taxonomic act, repository, researcher and publication dialogs.
type RecordDraftResponse struct {
	Mode    editor.Mode        `json:"mode"`
	Draft   editor.RecordDraft `json:"draft"`
	Masters editor.Masters     `json:"masters"`
}

// BionomicRecordRequest is the body of a bionomic record create or update.
// Localities in NewDistribution are converted and appended after Draft.Distribution.
type BionomicRecordRequest struct {
	editor.BionomicRecordDraft
	NewDistribution []editor.DistributionInput `json:"new_distribution,omitempty"`
}

// SaveResponse reports a completed save or delete.
type SaveResponse struct {
	Message string         `json:"message"`
	Outcome editor.Outcome `json:"outcome"`
}

// ConsoleListResponse lists the available consoles.
type ConsoleListResponse struct {
	Consoles []string `json:"consoles"`
}

// AuditLogResponse wraps the newest audit entries.
type AuditLogResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
	Count   int                 `json:"count"`
}
