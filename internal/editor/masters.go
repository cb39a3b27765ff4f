// internal/editor/masters.go
package editor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// masterConcurrency bounds the lookups issued at once when a dialog opens.
const masterConcurrency = 4

// Masters are the lookup lists that populate a dialog's selectors.
type Masters struct {
	Lists  map[string][]domain.Option `json:"lists"`
	Failed []string                   `json:"failed,omitempty"`
}

// MasterSource loads one named lookup list.
type MasterSource struct {
	Name string
	Load func(ctx context.Context, gw gateway.Gateway) ([]domain.Option, error)
}

// TableSource reads idCol (and labelCol, when set) of every row of table.
func TableSource(name, table, idCol, labelCol, orderCol string) MasterSource {
	sel := idCol
	if labelCol != "" && labelCol != idCol {
		sel += ", " + labelCol
	}
	return MasterSource{
		Name: name,
		Load: func(ctx context.Context, gw gateway.Gateway) ([]domain.Option, error) {
			rows, err := gateway.SelectAll(ctx, gw, gateway.Query{
				Table:  table,
				Select: sel,
				Order:  []gateway.Order{{Column: orderCol, Ascending: true}},
			}, 1000)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", table, err)
			}
			out := make([]domain.Option, 0, len(rows))
			for _, r := range rows {
				opt := domain.Option{ID: r.String(idCol), Label: r.String(idCol)}
				if labelCol != "" && r.String(labelCol) != "" {
					opt.Label = r.String(labelCol)
				}
				out = append(out, opt)
			}
			return out, nil
		},
	}
}

// LoadMasters runs every source in parallel. A failing source is logged and
// leaves its list empty; the others are unaffected.
func LoadMasters(ctx context.Context, gw gateway.Gateway, sources ...MasterSource) Masters {
	m := Masters{Lists: make(map[string][]domain.Option, len(sources))}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(masterConcurrency)
	for _, src := range sources {
		g.Go(func() error {
			opts, err := src.Load(ctx, gw)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				customLog.Warnf("Editor: master list %q unavailable: %v", src.Name, err)
				m.Lists[src.Name] = []domain.Option{}
				m.Failed = append(m.Failed, src.Name)
				return nil
			}
			if opts == nil {
				opts = []domain.Option{}
			}
			m.Lists[src.Name] = opts
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(m.Failed)
	return m
}

// Contains reports whether list holds an option with id.
func (m Masters) Contains(list, id string) bool {
	for _, o := range m.Lists[list] {
		if o.ID == id {
			return true
		}
	}
	return false
}
