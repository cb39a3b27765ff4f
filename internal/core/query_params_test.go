package core

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWindowParams(t *testing.T) {
	testCases := []struct {
		name        string
		query       string
		expected    *WindowParams
		expectError bool
	}{
		{
			name:     "defaults",
			query:    "",
			expected: &WindowParams{Page: 0, PageSize: 25, SortOrder: "asc"},
		},
		{
			name:     "full window",
			query:    "page=2&page_size=50&sort=name_spell_valid&order=DESC&search=+Xus+",
			expected: &WindowParams{Page: 2, PageSize: 50, SortBy: "name_spell_valid", SortOrder: "desc", Search: "Xus"},
		},
		{name: "negative page", query: "page=-1", expectError: true},
		{name: "page not integer", query: "page=two", expectError: true},
		{name: "page size zero", query: "page_size=0", expectError: true},
		{name: "page size over max", query: "page_size=501", expectError: true},
		{name: "bad sort field", query: "sort=name%3Bdrop", expectError: true},
		{name: "bad order", query: "order=up", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			opts, err := ParseWindowParams(values, 25, 500)
			if tc.expectError {
				assert.ErrorIs(t, err, ErrInvalidParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, opts)
		})
	}
}

func TestIsReservedParam(t *testing.T) {
	assert.True(t, IsReservedParam("Page_Size"))
	assert.True(t, IsReservedParam("search"))
	assert.False(t, IsReservedParam("current_rank"))
}
