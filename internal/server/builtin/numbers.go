package builtin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// asFloat coerces the usual JSON and caller-supplied numeric shapes to
// float64.
func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case nil:
		// Absent arguments default to zero, matching the server's
		// historical behavior.
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// formatNumber renders a float with at least one decimal digit, so 50
// prints as "50.0" and 2.5 prints as "2.5".
func formatNumber(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
