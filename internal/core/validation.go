// internal/core/validation.go
package core

import (
	"regexp"
	"strings"
)

// Regular expression for valid table/column names (alphanumeric + underscore)
var nameValidationRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// AllowedColumnTypes maps declared SQLite column types (uppercase) to the
// storage class the gateway decodes them as.
var AllowedColumnTypes = map[string]string{
	"TEXT":     "TEXT",
	"INTEGER":  "INTEGER",
	"REAL":     "REAL",
	"BLOB":     "BLOB",
	"BOOLEAN":  "BOOLEAN", // Represented as INTEGER in SQLite usually
	"JSON":     "JSON",    // Stored as TEXT, decoded on read
	"DATETIME": "TEXT",
}

// IsValidIdentifier checks if a string is a valid identifier (e.g., table_name, column_name)
// Applies basic format and length checks.
func IsValidIdentifier(name string) bool {
	return nameValidationRegex.MatchString(name) && len(name) > 0 && len(name) <= 64
}

// NormalizeAndValidateType checks if a string is an allowed column type, returning the normalized uppercase version.
func NormalizeAndValidateType(colType string) (string, bool) {
	upperType := strings.ToUpper(strings.TrimSpace(colType))
	normalizedType, ok := AllowedColumnTypes[upperType]
	return normalizedType, ok
}
