// internal/editor/links.go
package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
)

// LinkTable is an ordered many-to-many table from an owner row to researchers.
type LinkTable struct {
	Table  string
	Owner  string
	Target string
	Order  string
}

var (
	NameAuthors        = LinkTable{Table: "scientific_name_and_author", Owner: "scientific_name_id", Target: "researcher_id", Order: "author_order"}
	PublicationAuthors = LinkTable{Table: "publications_authors", Owner: "publication_id", Target: "researcher_id", Order: "author_order"}
)

// Load returns the linked ids of owner in link order. A failed read still
// returns an empty slice.
func (l LinkTable) Load(ctx context.Context, gw gateway.Gateway, owner string) ([]string, error) {
	res, err := gw.Select(ctx, gateway.Query{
		Table:  l.Table,
		Select: l.Target + ", " + l.Order,
		Eq:     []gateway.Filter{gateway.Eq(l.Owner, owner)},
		Order:  []gateway.Order{{Column: l.Order, Ascending: true}},
	})
	ids := make([]string, 0, len(res.Rows))
	if err != nil {
		return ids, fmt.Errorf("reading %s of %q: %w", l.Table, owner, err)
	}
	for _, r := range res.Rows {
		ids = append(ids, r.String(l.Target))
	}
	return ids, nil
}

// Sync makes the links of owner match ids, in order. Only the differences
// are written, so repeating a sync is a no-op.
func (l LinkTable) Sync(ctx context.Context, gw gateway.Gateway, owner string, ids []string) error {
	res, err := gw.Select(ctx, gateway.Query{
		Table:  l.Table,
		Select: l.Target + ", " + l.Order,
		Eq:     []gateway.Filter{gateway.Eq(l.Owner, owner)},
	})
	if err != nil {
		return fmt.Errorf("reading %s of %q: %w", l.Table, owner, err)
	}
	current := make(map[string]int64, len(res.Rows))
	for _, r := range res.Rows {
		order, _ := r.Int(l.Order)
		current[r.String(l.Target)] = order
	}

	want := make(map[string]int64, len(ids))
	ordered := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := want[id]; dup {
			continue
		}
		want[id] = int64(len(ordered) + 1)
		ordered = append(ordered, id)
	}

	for target := range current {
		if _, keep := want[target]; keep {
			continue
		}
		if _, err := gw.Delete(ctx, l.Table, gateway.Eq(l.Owner, owner), gateway.Eq(l.Target, target)); err != nil {
			return fmt.Errorf("unlinking %q from %q: %w", target, owner, err)
		}
	}

	var missing []domain.Record
	for _, target := range ordered {
		wantOrder := want[target]
		have, exists := current[target]
		switch {
		case !exists:
			missing = append(missing, domain.Record{l.Owner: owner, l.Target: target, l.Order: wantOrder})
		case have != wantOrder:
			if _, err := gw.Update(ctx, l.Table, domain.Record{l.Order: wantOrder},
				gateway.Eq(l.Owner, owner), gateway.Eq(l.Target, target)); err != nil {
				return fmt.Errorf("reordering %q of %q: %w", target, owner, err)
			}
		}
	}
	if len(missing) > 0 {
		if _, err := gw.Insert(ctx, l.Table, missing...); err != nil {
			return fmt.Errorf("linking %s of %q: %w", l.Table, owner, err)
		}
	}
	customLog.Debugf("Editor: synced %d %s links of %q", len(want), l.Table, owner)
	return nil
}

// Clear removes every link of owner.
func (l LinkTable) Clear(ctx context.Context, gw gateway.Gateway, owner string) error {
	if _, err := gw.Delete(ctx, l.Table, gateway.Eq(l.Owner, owner)); err != nil {
		return fmt.Errorf("unlinking %s of %q: %w", l.Table, owner, err)
	}
	return nil
}
