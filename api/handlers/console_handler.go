// api/handlers/console_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/taxacurator/api/models"
	"github.com/Annany2002/taxacurator/config"
	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/core"
)

// ConsoleHandler serves the read-only console pages.
type ConsoleHandler struct {
	Registry *console.Registry
	Cfg      *config.Config
}

// NewConsoleHandler creates a new ConsoleHandler.
func NewConsoleHandler(registry *console.Registry, cfg *config.Config) *ConsoleHandler {
	return &ConsoleHandler{Registry: registry, Cfg: cfg}
}

// ListConsoles returns the names of every console.
func (h *ConsoleHandler) ListConsoles(c *gin.Context) {
	c.JSON(http.StatusOK, models.ConsoleListResponse{Consoles: h.Registry.Names()})
}

// GetConsole renders one page of a console. Query parameters: page (0-based),
// page_size, sort, order, search.
func (h *ConsoleHandler) GetConsole(c *gin.Context) {
	page, err := h.Registry.Get(c.Param("console"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	params, err := core.ParseWindowParams(c.Request.URL.Query(), h.Cfg.DefaultPageSize, h.Cfg.MaxPageSize)
	if err != nil {
		customLog.Warnf("Console %s: invalid query parameters: %v", page.Name(), err)
		_ = c.Error(err)
		return
	}
	for key := range c.Request.URL.Query() {
		if !core.IsReservedParam(key) {
			customLog.Debugf("Console %s: ignoring query parameter %q", page.Name(), key)
		}
	}

	c.JSON(http.StatusOK, page.Load(c.Request.Context(), listParams(params)))
}

func listParams(p *core.WindowParams) console.ListParams {
	lp := console.ListParams{Page: p.Page, PageSize: p.PageSize, Search: p.Search}
	if p.SortBy != "" {
		lp.SortModel = []console.SortItem{{Field: p.SortBy, Sort: p.SortOrder}}
	}
	return lp
}
