// internal/gateway/rest.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Annany2002/taxacurator/internal/domain"
)

const restPrefix = "/rest/v1"

// RESTClient is a Gateway speaking the PostgREST dialect of a hosted backend.
type RESTClient struct {
	httpClient *resty.Client
}

var _ Gateway = (*RESTClient)(nil)

// NewRESTClient creates a client for baseURL authenticating with apiKey.
func NewRESTClient(baseURL, apiKey string, timeout time.Duration) *RESTClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "taxacurator/1.0")
	if apiKey != "" {
		client.SetHeader("apikey", apiKey).SetAuthToken(apiKey)
	}
	return &RESTClient{httpClient: client}
}

// apiError is the error body returned by PostgREST.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// Select implements Gateway.
func (c *RESTClient) Select(ctx context.Context, q Query) (Result, error) {
	params := url.Values{}
	sel := strings.Join(strings.Fields(q.Select), "")
	if sel == "" {
		sel = "*"
	}
	params.Set("select", sel)
	if or := orExpression(q.Or); or != "" {
		params.Set("or", or)
	}
	addFilters(params, q.Eq)
	for _, in := range q.In {
		vals := make([]string, 0, len(in.Values))
		for _, v := range in.Values {
			vals = append(vals, filterValue(v))
		}
		params.Add(in.Column, "in.("+strings.Join(vals, ",")+")")
	}

	var main []string
	for _, o := range q.Order {
		term := o.Column + ".asc.nullslast"
		if !o.Ascending {
			term = o.Column + ".desc.nullsfirst"
		}
		if o.ReferencedTable != "" {
			params.Add(o.ReferencedTable+".order", term)
			continue
		}
		main = append(main, term)
	}
	if len(main) > 0 {
		params.Set("order", strings.Join(main, ","))
	}
	if q.Range != nil {
		params.Set("offset", strconv.Itoa(max(q.Range.From, 0)))
		params.Set("limit", strconv.Itoa(max(q.Range.To-q.Range.From+1, 0)))
	}

	req := c.httpClient.R().SetContext(ctx).SetQueryParamsFromValues(params)
	if q.Count {
		req.SetHeader("Prefer", "count=exact")
	}
	resp, err := req.Get(restPrefix + "/" + url.PathEscape(q.Table))
	if err != nil {
		return Result{}, fmt.Errorf("%w: select %s: %v", ErrGateway, q.Table, err)
	}
	if resp.IsError() {
		return Result{}, decodeAPIError(resp)
	}

	rows, err := decodeRows(resp.Body())
	if err != nil {
		return Result{}, err
	}
	result := Result{Rows: rows}
	if q.Count {
		if total, ok := parseContentRange(resp.Header().Get("Content-Range")); ok {
			result.Count = &total
		}
	}
	return result, nil
}

// Insert implements Gateway.
func (c *RESTClient) Insert(ctx context.Context, table string, rows ...domain.Record) ([]domain.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetBody(rows).
		Post(restPrefix + "/" + url.PathEscape(table))
	if err != nil {
		return nil, fmt.Errorf("%w: insert %s: %v", ErrGateway, table, err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return decodeRows(resp.Body())
}

// Update implements Gateway.
func (c *RESTClient) Update(ctx context.Context, table string, patch domain.Record, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrMissingFilter
	}
	params := url.Values{}
	addFilters(params, filters)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal, count=exact").
		SetQueryParamsFromValues(params).
		SetBody(patch).
		Patch(restPrefix + "/" + url.PathEscape(table))
	if err != nil {
		return 0, fmt.Errorf("%w: update %s: %v", ErrGateway, table, err)
	}
	if resp.IsError() {
		return 0, decodeAPIError(resp)
	}
	n, _ := parseContentRange(resp.Header().Get("Content-Range"))
	return int64(n), nil
}

// Delete implements Gateway.
func (c *RESTClient) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrMissingFilter
	}
	params := url.Values{}
	addFilters(params, filters)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=minimal, count=exact").
		SetQueryParamsFromValues(params).
		Delete(restPrefix + "/" + url.PathEscape(table))
	if err != nil {
		return 0, fmt.Errorf("%w: delete %s: %v", ErrGateway, table, err)
	}
	if resp.IsError() {
		return 0, decodeAPIError(resp)
	}
	n, _ := parseContentRange(resp.Header().Get("Content-Range"))
	return int64(n), nil
}

// RPC implements Gateway.
func (c *RESTClient) RPC(ctx context.Context, name string, params map[string]any) ([]domain.Record, error) {
	if params == nil {
		params = map[string]any{}
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		Post(restPrefix + "/rpc/" + url.PathEscape(name))
	if err != nil {
		return nil, fmt.Errorf("%w: rpc %s: %v", ErrGateway, name, err)
	}
	if resp.IsError() {
		return nil, decodeAPIError(resp)
	}
	return decodeRows(resp.Body())
}

func addFilters(params url.Values, filters []Filter) {
	for _, f := range filters {
		if f.Value == nil {
			params.Add(f.Column, "is.null")
			continue
		}
		params.Add(f.Column, "eq."+domain.Stringify(f.Value))
	}
}

// orExpression renders matches as or=(col.ilike.*term*,...).
func orExpression(matches []Match) string {
	if len(matches) == 0 {
		return ""
	}
	arms := make([]string, 0, len(matches))
	for _, m := range matches {
		arms = append(arms, m.Column+".ilike."+filterValue("*"+m.Term+"*"))
	}
	return "(" + strings.Join(arms, ",") + ")"
}

// filterValue quotes values containing PostgREST reserved characters.
func filterValue(v any) string {
	s := domain.Stringify(v)
	if strings.ContainsAny(s, `,.:()" \`) {
		s = strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
		return `"` + s + `"`
	}
	return s
}

// parseContentRange extracts the total from "0-24/3573" or "*/0".
func parseContentRange(h string) (int, bool) {
	i := strings.LastIndex(h, "/")
	if i < 0 || i == len(h)-1 {
		return 0, false
	}
	total, err := strconv.Atoi(h[i+1:])
	if err != nil {
		return 0, false
	}
	return total, true
}

func decodeRows(body []byte) ([]domain.Record, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || trimmed == "null" {
		return []domain.Record{}, nil
	}
	if strings.HasPrefix(trimmed, "{") {
		var single domain.Record
		if err := json.Unmarshal(body, &single); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
		}
		return []domain.Record{single}, nil
	}
	if !strings.HasPrefix(trimmed, "[") {
		// Scalar-returning procedures.
		var scalar any
		if err := json.Unmarshal(body, &scalar); err != nil {
			return nil, fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
		}
		return []domain.Record{{"value": scalar}}, nil
	}
	var rows []domain.Record
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrGateway, err)
	}
	return rows, nil
}

func decodeAPIError(resp *resty.Response) error {
	var apiErr apiError
	_ = json.Unmarshal(resp.Body(), &apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = strings.TrimSpace(string(resp.Body()))
	}
	detail := fmt.Sprintf("%s (code %s, status %d)", msg, apiErr.Code, resp.StatusCode())

	switch apiErr.Code {
	case "42P01", "PGRST205":
		return fmt.Errorf("%w: %s", ErrTableNotFound, detail)
	case "42703", "PGRST204":
		return fmt.Errorf("%w: %s", ErrColumnNotFound, detail)
	case "23505", "23503", "23502", "23514":
		return fmt.Errorf("%w: %s", ErrConstraintViolation, detail)
	case "22P02":
		return fmt.Errorf("%w: %s", ErrTypeMismatch, detail)
	case "PGRST202":
		return fmt.Errorf("%w: %s", ErrUnknownProcedure, detail)
	case "PGRST116":
		return fmt.Errorf("%w: %s", ErrRecordNotFound, detail)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrTableNotFound, detail)
	}
	customLog.Warnf("Gateway: Unmapped REST error: %s", detail)
	return fmt.Errorf("%w: %s", ErrGateway, detail)
}
