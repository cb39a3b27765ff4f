// internal/console/page.go
package console

import (
	"context"
	"sort"
	"sync"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// ColumnView is the serialisable form of a Column.
type ColumnView struct {
	Field    string `json:"field"`
	Header   string `json:"header"`
	Width    int    `json:"width,omitempty"`
	Sortable bool   `json:"sortable"`
}

// RowView is one rendered table row.
type RowView struct {
	ID    string            `json:"id"`
	Cells map[string]string `json:"cells"`
	Data  any               `json:"data"`
}

// View is one rendered page of a console.
type View struct {
	Console  string       `json:"console"`
	Columns  []ColumnView `json:"columns"`
	Rows     []RowView    `json:"rows"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	OrderBy  string       `json:"order_by"`
	Order    string       `json:"order"`
	Source   string       `json:"source,omitempty"`
}

// Console is a type-erased console page.
type Console interface {
	Name() string
	Columns() []ColumnView
	Load(ctx context.Context, params ListParams) View
	Loading() bool
}

// Page binds a plugin and the list controller to a table view.
type Page[T domain.Row] struct {
	plugin  *Plugin[T]
	gw      gateway.Gateway
	onEdit  func(T) string
	columns []Column[T]

	mu       sync.Mutex
	inFlight int
}

// NewPage creates a console page. onEdit renders the edit action of a row and
// may be nil for read-only consoles.
func NewPage[T domain.Row](plugin *Plugin[T], gw gateway.Gateway, onEdit func(T) string) *Page[T] {
	return &Page[T]{
		plugin:  plugin,
		gw:      gw,
		onEdit:  onEdit,
		columns: plugin.Columns(onEdit),
	}
}

// Name implements Console.
func (p *Page[T]) Name() string { return p.plugin.Name }

// Plugin returns the bound plugin.
func (p *Page[T]) Plugin() *Plugin[T] { return p.plugin }

// Columns implements Console.
func (p *Page[T]) Columns() []ColumnView {
	out := make([]ColumnView, 0, len(p.columns))
	for _, c := range p.columns {
		out = append(out, ColumnView{Field: c.Field, Header: c.Header, Width: c.Width, Sortable: c.Sortable})
	}
	return out
}

// Loading reports whether a Load is in progress.
func (p *Page[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight > 0
}

// List runs the list controller without rendering.
func (p *Page[T]) List(ctx context.Context, params ListParams) ListResult[T] {
	p.mu.Lock()
	p.inFlight++
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()
	return List(ctx, p.gw, p.plugin, params)
}

// Load implements Console.
func (p *Page[T]) Load(ctx context.Context, params ListParams) View {
	res := p.List(ctx, params)
	w := ResolveWindow(params, p.plugin.DefaultSort)

	view := View{
		Console:  p.plugin.Name,
		Columns:  p.Columns(),
		Rows:     make([]RowView, 0, len(res.Rows)),
		Total:    res.Total,
		Page:     w.Page,
		PageSize: w.PageSize,
		OrderBy:  w.OrderBy,
		Order:    SortAsc,
		Source:   res.Source,
	}
	if !w.Ascending {
		view.Order = SortDesc
	}
	for _, row := range res.Rows {
		cells := make(map[string]string, len(p.columns))
		for _, c := range p.columns {
			if c.Value != nil {
				cells[c.Field] = c.Value(row)
			}
		}
		view.Rows = append(view.Rows, RowView{ID: row.RowID(), Cells: cells, Data: row})
	}
	return view
}

// Registry holds the consoles served by the API.
type Registry struct {
	consoles map[string]Console
}

// NewRegistry creates a registry of consoles keyed by name.
func NewRegistry(consoles ...Console) *Registry {
	r := &Registry{consoles: make(map[string]Console, len(consoles))}
	for _, c := range consoles {
		r.consoles[c.Name()] = c
	}
	return r
}

// Get returns the console called name.
func (r *Registry) Get(name string) (Console, error) {
	c, ok := r.consoles[name]
	if !ok {
		return nil, ErrUnknownConsole
	}
	return c, nil
}

// Names returns the registered console names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.consoles))
	for n := range r.consoles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
