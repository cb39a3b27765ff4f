// internal/gateway/instrument.go
package gateway

import (
	"context"
	"time"

	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/metrics"
)

// instrumented records call counts and latencies for another Gateway.
type instrumented struct {
	next   Gateway
	driver string
}

// Instrument wraps gw so every call is counted under the given driver label.
func Instrument(gw Gateway, driver string) Gateway {
	return &instrumented{next: gw, driver: driver}
}

func (g *instrumented) observe(op, target string, start time.Time, err error) {
	metrics.GatewayCallsTotal.WithLabelValues(g.driver, op, target, metrics.Outcome(err)).Inc()
	metrics.GatewayCallDuration.WithLabelValues(g.driver, op).Observe(time.Since(start).Seconds())
}

func (g *instrumented) Select(ctx context.Context, q Query) (Result, error) {
	start := time.Now()
	res, err := g.next.Select(ctx, q)
	g.observe("select", q.Table, start, err)
	return res, err
}

func (g *instrumented) Insert(ctx context.Context, table string, rows ...domain.Record) ([]domain.Record, error) {
	start := time.Now()
	out, err := g.next.Insert(ctx, table, rows...)
	g.observe("insert", table, start, err)
	return out, err
}

func (g *instrumented) Update(ctx context.Context, table string, patch domain.Record, filters ...Filter) (int64, error) {
	start := time.Now()
	n, err := g.next.Update(ctx, table, patch, filters...)
	g.observe("update", table, start, err)
	return n, err
}

func (g *instrumented) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	start := time.Now()
	n, err := g.next.Delete(ctx, table, filters...)
	g.observe("delete", table, start, err)
	return n, err
}

func (g *instrumented) RPC(ctx context.Context, name string, params map[string]any) ([]domain.Record, error) {
	start := time.Now()
	out, err := g.next.RPC(ctx, name, params)
	g.observe("rpc", name, start, err)
	return out, err
}
