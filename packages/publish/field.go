package publish

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Null replaces empty string values.
const Null = "NULL"

// Field is one key/value pair of the published object.
type Field struct {
	Key     string  `json:"key"`
	Value   string  `json:"value"`
	Number  float64 `json:"number,omitempty"`
	Numeric bool    `json:"numeric"`
}

func newField(key string, v gjson.Result) Field {
	f := Field{Key: key}

	switch v.Type {
	case gjson.Number:
		f.Value = v.Raw
		f.Number = v.Float()
		f.Numeric = !math.IsInf(f.Number, 0) && !math.IsNaN(f.Number)
	case gjson.String:
		f.Value = v.Str
		if f.Value == "" {
			f.Value = Null
		} else if n, ok := ParseNumber(f.Value); ok {
			f.Number = n
			f.Numeric = true
		}
	case gjson.Null:
		f.Value = "null"
	default:
		// true, false, objects and arrays keep their JSON text
		f.Value = v.Raw
	}

	return f
}

// ParseNumber reports whether s is a finite decimal number. Hex, infinity,
// NaN and surrounding whitespace are rejected.
func ParseNumber(s string) (float64, bool) {
	if s == "" || strings.TrimSpace(s) != s {
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "0x") || strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}
