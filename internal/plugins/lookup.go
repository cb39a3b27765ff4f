// internal/plugins/lookup.go
package plugins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/logger"
)

var customLog = logger.NewLogger()

// inChunk bounds the size of one membership filter so REST query strings stay short.
const inChunk = 200

// allChunk is the page size used when a console reads a whole table.
const allChunk = 1000

// selectIn fetches the rows of table whose column is one of ids.
func selectIn(ctx context.Context, gw gateway.Gateway, table, sel, column string, ids []string) ([]domain.Record, error) {
	ids = uniq(ids)
	var out []domain.Record
	for start := 0; start < len(ids); start += inChunk {
		end := min(start+inChunk, len(ids))
		res, err := gw.Select(ctx, gateway.Query{
			Table:  table,
			Select: sel,
			In:     []gateway.InFilter{gateway.In(column, ids[start:end])},
		})
		if err != nil {
			return nil, fmt.Errorf("lookup %s.%s: %w", table, column, err)
		}
		out = append(out, res.Rows...)
	}
	return out, nil
}

// indexBy maps the rows by the text of key.
func indexBy(rows []domain.Record, key string) map[string]domain.Record {
	m := make(map[string]domain.Record, len(rows))
	for _, r := range rows {
		if k := r.String(key); k != "" {
			m[k] = r
		}
	}
	return m
}

// groupBy groups the rows by the text of key.
func groupBy(rows []domain.Record, key string) map[string][]domain.Record {
	m := make(map[string][]domain.Record)
	for _, r := range rows {
		if k := r.String(key); k != "" {
			m[k] = append(m[k], r)
		}
	}
	return m
}

func uniq(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// decodeRecord maps a gateway record onto a typed row through its JSON tags.
func decodeRecord[T any](r domain.Record) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decoding record into %T: %w", out, err)
	}
	return out, nil
}

func firstText(values ...string) string {
	for _, v := range values {
		if s := domain.StrPtr(v); s != nil {
			return v
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
