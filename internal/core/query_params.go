// internal/core/query_params.go
package core

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Default and limit constants for console paging
const (
	DefaultPageSize = 25
	MaxPageSize     = 500
	DefaultOrder    = "asc"
	MaxSearchLength = 200
)

// ErrInvalidParam wraps every rejected query parameter.
var ErrInvalidParam = errors.New("invalid query parameter")

// ReservedParams contains query parameter names reserved for paging, sorting and search.
var ReservedParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"sort":      true,
	"order":     true,
	"search":    true,
}

// WindowParams holds the parsed page window of a console request.
type WindowParams struct {
	// Paging (0-based page index)
	Page     int
	PageSize int

	// Sorting. SortBy is empty when the console default applies.
	SortBy    string
	SortOrder string // "asc" or "desc"

	// Free-text search
	Search string
}

// ParseWindowParams extracts paging, sorting and search options from query parameters.
// defaultSize and maxSize fall back to the package defaults when not positive.
func ParseWindowParams(queryParams url.Values, defaultSize, maxSize int) (*WindowParams, error) {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	opts := &WindowParams{
		Page:      0,
		PageSize:  defaultSize,
		SortOrder: DefaultOrder,
	}

	// Parse page
	if pageStr := queryParams.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("%w 'page': must be an integer", ErrInvalidParam)
		}
		if page < 0 {
			return nil, fmt.Errorf("%w 'page': must be non-negative", ErrInvalidParam)
		}
		opts.Page = page
	}

	// Parse page size
	if sizeStr := queryParams.Get("page_size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("%w 'page_size': must be an integer", ErrInvalidParam)
		}
		if size < 1 {
			return nil, fmt.Errorf("%w 'page_size': must be at least 1", ErrInvalidParam)
		}
		if size > maxSize {
			return nil, fmt.Errorf("%w 'page_size': maximum is %d", ErrInvalidParam, maxSize)
		}
		opts.PageSize = size
	}

	// Parse sort field
	if sortBy := queryParams.Get("sort"); sortBy != "" {
		if !IsValidIdentifier(sortBy) {
			return nil, fmt.Errorf("%w 'sort': '%s' is not a valid field name", ErrInvalidParam, sortBy)
		}
		opts.SortBy = sortBy
	}

	// Parse sort order
	if order := queryParams.Get("order"); order != "" {
		lowerOrder := strings.ToLower(order)
		if lowerOrder != "asc" && lowerOrder != "desc" {
			return nil, fmt.Errorf("%w 'order': must be 'asc' or 'desc'", ErrInvalidParam)
		}
		opts.SortOrder = lowerOrder
	}

	// Parse search
	search := strings.TrimSpace(queryParams.Get("search"))
	if len(search) > MaxSearchLength {
		return nil, fmt.Errorf("%w 'search': maximum length is %d", ErrInvalidParam, MaxSearchLength)
	}
	opts.Search = search

	return opts, nil
}

// IsReservedParam checks if a query parameter name is reserved for paging, sorting or search.
func IsReservedParam(key string) bool {
	return ReservedParams[strings.ToLower(key)]
}
