package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is a read-only row fetched from the LMS database, keyed by column name.
type Record map[string]any

// String returns the column as text, or "" when absent or NULL.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the column as an integer, or 0 when absent or not numeric.
func (r Record) Int(field string) int64 {
	switch v := r[field].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string, []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(r.String(field)), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Float returns the column as a float, or 0 when absent or not numeric.
func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int, int32, int64, bool:
		return float64(r.Int(field))
	case string, []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.String(field)), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Has reports whether the column is present and not NULL.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}
