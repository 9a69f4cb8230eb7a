package duckdb

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	duckdbdriver "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
)

// normalizeValues converts driver values into JSON- and CSV-safe forms,
// using the column's DuckDB type name where the Go type is ambiguous.
func normalizeValues(values []any, typeNames []string) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		typeName := ""
		if i < len(typeNames) {
			typeName = typeNames[i]
		}
		normalized[i] = normalizeValue(value, typeName)
	}
	return normalized
}

func normalizeValue(value any, typeName string) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if typeName == "UUID" && len(v) == len(uuid.UUID{}) {
			return uuid.UUID(v).String()
		}
		if typeName == "BLOB" || !utf8.Valid(v) {
			return escapeBlob(v)
		}
		return string(v)
	case duckdbdriver.Decimal:
		if v.Value == nil {
			return nil
		}
		// Exact text; float64 would round wide decimals.
		return v.String()
	case duckdbdriver.UUID:
		return v.String()
	case *duckdbdriver.UUID:
		if v == nil {
			return nil
		}
		return v.String()
	case duckdbdriver.Interval:
		return fmt.Sprintf("%d months %d days %d us", v.Months, v.Days, v.Micros)
	case float64:
		return normalizeFloat(v, 64)
	case float32:
		return normalizeFloat(float64(v), 32)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item, "")
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeValue(item, "")
		}
		return out
	}
	return value
}

// normalizeFloat keeps finite floats as numbers and spells out NaN and the
// infinities, which JSON cannot carry.
func normalizeFloat(f float64, bits int) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, bits)
	}
	if bits == 32 {
		return float32(f)
	}
	return f
}

// escapeBlob renders bytes the way DuckDB prints BLOBs: printable ASCII as
// is, everything else as \xHH.
func escapeBlob(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= 0x20 && c < 0x7f && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, `\x%02X`, c)
	}
	return sb.String()
}
