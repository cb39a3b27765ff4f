// internal/core/validation_test.go
package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidIdentifier(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  bool
	}{
		{"catalogue table", "scientific_names", true},
		{"mixed case table", "Repositories", true},
		{"link table", "scientific_name_and_author", true},
		{"sort column", "name_spell_valid", true},
		{"leading underscore", "_parent", true},
		{"longest allowed", strings.Repeat("a", 64), true},
		{"empty", "", false},
		{"console name", "scientific-names", false},
		{"quoted column", `"name_en"`, false},
		{"statement break", "name;drop", false},
		{"embedded space", "type locality", false},
		{"qualified column", "journals.name_english", false},
		{"too long", strings.Repeat("a", 65), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidIdentifier(tc.input), "IsValidIdentifier(%q)", tc.input)
		})
	}
}

func TestNormalizeAndValidateType(t *testing.T) {
	testCases := []struct {
		name     string
		declared string
		wantType string
		wantOk   bool
	}{
		{"text column", "TEXT", "TEXT", true},
		{"lower case integer", "integer", "INTEGER", true},
		{"coordinates", "REAL", "REAL", true},
		{"open access flag", "BOOLEAN", "BOOLEAN", true},
		{"distribution json", "json", "JSON", true},
		{"created_at decodes as text", "DATETIME", "TEXT", true},
		{"padded", " Integer ", "INTEGER", true},
		{"unsupported", "VARCHAR(255)", "", false},
		{"undeclared", "", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gotType, gotOk := NormalizeAndValidateType(tc.declared)
			assert.Equal(t, tc.wantOk, gotOk)
			assert.Equal(t, tc.wantType, gotType)
		})
	}
}
