// Package normalize maps source rows, whose column names drift between schema
// versions, onto the canonical records the dashboard aggregates.
package normalize

import (
	"strings"

	"github.com/bharath-k9/Analytics-dashboard/internal/coerce"
	"github.com/bharath-k9/Analytics-dashboard/internal/source"
)

// Field lists the source columns that may carry one canonical attribute,
// in priority order, and the value used when none of them is present.
type Field struct {
	Keys    []string
	Default any
}

func field(def any, keys ...string) Field {
	return Field{Keys: keys, Default: def}
}

// Lookup returns the first present value. Missing keys, nil and blank
// strings count as absent.
func (f Field) Lookup(row source.Row) (any, bool) {
	for _, key := range f.Keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func (f Field) Value(row source.Row) any {
	if v, ok := f.Lookup(row); ok {
		return v
	}
	return f.Default
}

func (f Field) Number(row source.Row) float64 {
	return coerce.Number(f.Value(row))
}

func (f Field) Int(row source.Row) int64 {
	return coerce.Int(f.Value(row))
}

func (f Field) Text(row source.Row) string {
	if s, ok := coerce.String(f.Value(row)); ok {
		return s
	}
	if s, ok := f.Default.(string); ok {
		return s
	}
	return ""
}

// StateCode returns the trimmed, upper-cased state code, or "" when absent.
func (f Field) StateCode(row source.Row) string {
	s, ok := coerce.String(f.Value(row))
	if !ok {
		return ""
	}
	return strings.ToUpper(s)
}
