// internal/gateway/sqlite.go
package gateway

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Annany2002/taxacurator/internal/core"
	"github.com/Annany2002/taxacurator/internal/domain"
	"github.com/Annany2002/taxacurator/internal/logger"
)

var (
	customLog = logger.NewLogger()

	//go:embed schema.sql
	schemaSQL string
)

// Procedure is a named remote procedure served by the SQLite store.
type Procedure func(ctx context.Context, s *SQLiteStore, params map[string]any) ([]domain.Record, error)

// SQLiteStore is a Gateway backed by a local SQLite file.
type SQLiteStore struct {
	db *sql.DB

	mu         sync.RWMutex
	procedures map[string]Procedure
}

// ConnectSQLite opens (creating if needed) the database file, applies the
// schema, and registers the built-in search procedures.
func ConnectSQLite(ctx context.Context, dir, file string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		customLog.Warnf("Gateway: Failed to create data directory '%s': %v", dir, err)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dir, file)
	customLog.Printf("Gateway: Opening SQLite store at %s", dbPath)

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite store: %w", err)
	}

	store := NewSQLiteStore(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLiteStore wraps an open connection. The schema is not applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	s := &SQLiteStore{db: db, procedures: make(map[string]Procedure)}
	s.Register("search_researchers", searchResearchers)
	s.Register("search_repositories", searchRepositories)
	return s
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		customLog.Warnf("Gateway: Failed to apply schema: %v", err)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Register adds or replaces a remote procedure.
func (s *SQLiteStore) Register(name string, p Procedure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures[name] = p
}

// Unregister removes a remote procedure.
func (s *SQLiteStore) Unregister(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.procedures, name)
}

// DB exposes the underlying pool.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the underlying pool.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// PragmaTableInfo retrieves the declared column types of a table, keyed by lowercase name.
func PragmaTableInfo(ctx context.Context, db *sql.DB, tableName string) (map[string]string, error) {
	if !core.IsValidIdentifier(tableName) {
		return nil, fmt.Errorf("%w: table '%s'", ErrInvalidIdentifier, tableName)
	}
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s);", quoteIdent(tableName)))
	if err != nil {
		customLog.Warnf("Gateway: Failed PRAGMA for Table '%s': %v", tableName, err)
		return nil, fmt.Errorf("failed to retrieve schema: %w", err)
	}
	defer rows.Close()

	columnTypes := make(map[string]string)
	for rows.Next() {
		var cid, notnull, pk int
		var name, sqlType string
		var dfltValue sql.NullString
		if err := rows.Scan(&cid, &name, &sqlType, &notnull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}
		columnTypes[strings.ToLower(name)] = strings.ToUpper(sqlType)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if len(columnTypes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, tableName)
	}
	return columnTypes, nil
}

// Select implements Gateway.
func (s *SQLiteStore) Select(ctx context.Context, q Query) (Result, error) {
	columnTypes, err := PragmaTableInfo(ctx, s.db, q.Table)
	if err != nil {
		return Result{}, err
	}

	selectList, err := selectColumns(q.Select, columnTypes)
	if err != nil {
		return Result{}, err
	}

	where, args, err := buildWhere(q, columnTypes)
	if err != nil {
		return Result{}, err
	}

	var orderTerms []string
	for _, o := range q.Order {
		if o.ReferencedTable != "" {
			// Embedded relations are not materialised by this store.
			continue
		}
		if err := requireColumn(o.Column, columnTypes); err != nil {
			return Result{}, err
		}
		if o.Ascending {
			orderTerms = append(orderTerms, quoteIdent(o.Column)+" ASC NULLS LAST")
		} else {
			orderTerms = append(orderTerms, quoteIdent(o.Column)+" DESC NULLS FIRST")
		}
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s%s", selectList, quoteIdent(q.Table), where)
	if len(orderTerms) > 0 {
		stmt += " ORDER BY " + strings.Join(orderTerms, ", ")
	}
	if q.Range != nil {
		limit := q.Range.To - q.Range.From + 1
		if limit < 0 {
			limit = 0
		}
		stmt += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, max(q.Range.From, 0))
	}

	customLog.Debugf("Gateway: Executing SELECT: %s | Args: %v", stmt, args)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return Result{}, mapSQLiteError(err, "select")
	}
	defer rows.Close()

	records, err := scanRecords(rows, columnTypes)
	if err != nil {
		return Result{}, err
	}

	result := Result{Rows: records}
	if q.Count {
		var total int
		countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdent(q.Table), where)
		if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
			return Result{}, mapSQLiteError(err, "count")
		}
		result.Count = &total
	}
	return result, nil
}

// Insert implements Gateway. Inserted rows are returned as stored.
func (s *SQLiteStore) Insert(ctx context.Context, table string, rows ...domain.Record) ([]domain.Record, error) {
	columnTypes, err := PragmaTableInfo(ctx, s.db, table)
	if err != nil {
		return nil, err
	}

	inserted := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		keys := sortedKeys(row)
		var stmt string
		args := make([]any, 0, len(keys))
		if len(keys) == 0 {
			stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", quoteIdent(table))
		} else {
			cols := make([]string, 0, len(keys))
			placeholders := make([]string, 0, len(keys))
			for _, k := range keys {
				if err := requireColumn(k, columnTypes); err != nil {
					return inserted, err
				}
				cols = append(cols, quoteIdent(k))
				placeholders = append(placeholders, "?")
				v, err := encodeValue(columnTypes[strings.ToLower(k)], row[k])
				if err != nil {
					return inserted, err
				}
				args = append(args, v)
			}
			stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
				quoteIdent(table), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
		}

		result, err := s.queryRecords(ctx, columnTypes, "insert", stmt, args...)
		if err != nil {
			return inserted, err
		}
		inserted = append(inserted, result...)
	}
	return inserted, nil
}

// Update implements Gateway and returns the number of matched rows.
func (s *SQLiteStore) Update(ctx context.Context, table string, patch domain.Record, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrMissingFilter
	}
	if len(patch) == 0 {
		return 0, nil
	}
	columnTypes, err := PragmaTableInfo(ctx, s.db, table)
	if err != nil {
		return 0, err
	}

	var sets []string
	var args []any
	for _, k := range sortedKeys(patch) {
		if err := requireColumn(k, columnTypes); err != nil {
			return 0, err
		}
		v, err := encodeValue(columnTypes[strings.ToLower(k)], patch[k])
		if err != nil {
			return 0, err
		}
		sets = append(sets, quoteIdent(k)+" = ?")
		args = append(args, v)
	}
	where, whereArgs, err := buildWhere(Query{Eq: filters}, columnTypes)
	if err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s%s", quoteIdent(table), strings.Join(sets, ", "), where)
	return s.exec(ctx, "update", stmt, append(args, whereArgs...)...)
}

// Delete implements Gateway and returns the number of removed rows.
func (s *SQLiteStore) Delete(ctx context.Context, table string, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, ErrMissingFilter
	}
	columnTypes, err := PragmaTableInfo(ctx, s.db, table)
	if err != nil {
		return 0, err
	}
	where, args, err := buildWhere(Query{Eq: filters}, columnTypes)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "delete", fmt.Sprintf("DELETE FROM %s%s", quoteIdent(table), where), args...)
}

// RPC implements Gateway by dispatching to a registered Procedure.
func (s *SQLiteStore) RPC(ctx context.Context, name string, params map[string]any) ([]domain.Record, error) {
	s.mu.RLock()
	proc, ok := s.procedures[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProcedure, name)
	}
	return proc(ctx, s, params)
}

func (s *SQLiteStore) exec(ctx context.Context, op, stmt string, args ...any) (int64, error) {
	customLog.Debugf("Gateway: Executing %s: %s | Args: %v", strings.ToUpper(op), stmt, args)
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, mapSQLiteError(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed confirming %s: %w", op, err)
	}
	return n, nil
}

func (s *SQLiteStore) queryRecords(ctx context.Context, columnTypes map[string]string, op, stmt string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, mapSQLiteError(err, op)
	}
	defer rows.Close()
	records, err := scanRecords(rows, columnTypes)
	if err != nil {
		return nil, mapSQLiteError(err, op)
	}
	return records, nil
}

// scanRecords reads every row into a Record, decoding values by declared column type.
func scanRecords(rows *sql.Rows, columnTypes map[string]string) ([]domain.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed processing results: %w", err)
	}
	results := make([]domain.Record, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed reading record data: %w", err)
		}
		rec := make(domain.Record, len(columns))
		for i, col := range columns {
			rec[col] = decodeValue(columnTypes[strings.ToLower(col)], values[i])
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed processing all records: %w", err)
	}
	return results, nil
}

func decodeValue(declared string, raw any) any {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	if t, ok := raw.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	kind, _ := core.NormalizeAndValidateType(declared)
	switch kind {
	case "JSON":
		if s, ok := raw.(string); ok {
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err == nil {
				return decoded
			}
		}
	case "BOOLEAN":
		if n, ok := raw.(int64); ok {
			return n != 0
		}
	}
	return raw
}

func encodeValue(declared string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	kind, _ := core.NormalizeAndValidateType(declared)
	switch kind {
	case "JSON":
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return string(b), nil
	case "BOOLEAN":
		if b, ok := v.(bool); ok {
			if b {
				return int64(1), nil
			}
			return int64(0), nil
		}
	}
	switch v.(type) {
	case map[string]any, domain.Record, []any, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return string(b), nil
	}
	return v, nil
}

// selectColumns turns a flat select list into SQL. Embedded relations are rejected.
func selectColumns(sel string, columnTypes map[string]string) (string, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" || sel == "*" {
		return "*", nil
	}
	if strings.ContainsAny(sel, "():") {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSelect, sel)
	}
	var cols []string
	for _, part := range strings.Split(sel, ",") {
		col := strings.TrimSpace(part)
		if col == "" {
			continue
		}
		if col == "*" {
			return "*", nil
		}
		if err := requireColumn(col, columnTypes); err != nil {
			return "", err
		}
		cols = append(cols, quoteIdent(col))
	}
	if len(cols) == 0 {
		return "*", nil
	}
	return strings.Join(cols, ", "), nil
}

func buildWhere(q Query, columnTypes map[string]string) (string, []any, error) {
	var clauses []string
	var args []any

	if len(q.Or) > 0 {
		var arms []string
		for _, m := range q.Or {
			if err := requireColumn(m.Column, columnTypes); err != nil {
				return "", nil, err
			}
			arms = append(arms, fmt.Sprintf("CAST(%s AS TEXT) LIKE ? ESCAPE '\\'", quoteIdent(m.Column)))
			args = append(args, "%"+escapeLike(m.Term)+"%")
		}
		clauses = append(clauses, "("+strings.Join(arms, " OR ")+")")
	}

	for _, f := range q.Eq {
		if err := requireColumn(f.Column, columnTypes); err != nil {
			return "", nil, err
		}
		if f.Value == nil {
			clauses = append(clauses, quoteIdent(f.Column)+" IS NULL")
			continue
		}
		v, err := encodeValue(columnTypes[strings.ToLower(f.Column)], f.Value)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, quoteIdent(f.Column)+" = ?")
		args = append(args, v)
	}

	for _, in := range q.In {
		if err := requireColumn(in.Column, columnTypes); err != nil {
			return "", nil, err
		}
		if len(in.Values) == 0 {
			clauses = append(clauses, "0")
			continue
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(in.Values)), ", ")
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", quoteIdent(in.Column), placeholders))
		args = append(args, in.Values...)
	}

	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func requireColumn(col string, columnTypes map[string]string) error {
	if !core.IsValidIdentifier(col) {
		return fmt.Errorf("%w: column '%s'", ErrInvalidIdentifier, col)
	}
	if _, ok := columnTypes[strings.ToLower(col)]; !ok {
		return fmt.Errorf("%w: %s", ErrColumnNotFound, col)
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func sortedKeys(r domain.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mapSQLiteError maps driver errors onto the gateway sentinels.
func mapSQLiteError(err error, op string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return fmt.Errorf("%w: %s", ErrTableNotFound, msg)
	case strings.Contains(msg, "no such column"), strings.Contains(msg, "has no column named"):
		return fmt.Errorf("%w: %s", ErrColumnNotFound, msg)
	case strings.Contains(msg, "datatype mismatch"):
		return fmt.Errorf("%w: %s", ErrTypeMismatch, msg)
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s", ErrConstraintViolation, msg)
	}
	customLog.Warnf("Gateway: Unmapped %s error: %v", op, err)
	return fmt.Errorf("database error during %s: %w", op, err)
}
