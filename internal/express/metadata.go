package express

import (
	"fmt"
	"strconv"
	"time"

	"pesaflow/internal/mpesa"
)

// flattenMetadata builds a name/value map from the callback's flat item
// list in a single pass. Duplicate names keep the last value.
func flattenMetadata(meta *mpesa.CallbackMetadata) map[string]any {
	out := make(map[string]any)
	if meta == nil {
		return out
	}
	for _, item := range meta.Item {
		out[item.Name] = item.Value
	}
	return out
}

// metadataString renders a metadata value that may arrive as either a
// JSON string or a number (Daraja is not consistent about this).
func metadataString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// TransactionDate and PhoneNumber come through as numbers;
		// render without an exponent or trailing zeros.
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// metadataFloat extracts a numeric metadata value, tolerating string
// encodings.
func metadataFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// parseTransactionDate parses Daraja's compact settlement timestamp: a
// fixed-width digit string of year, month, day, hour, minute, second
// with no separators (20240115143022). Anything else reports false; a
// bad timestamp never fails the callback.
func parseTransactionDate(v any) (time.Time, bool) {
	s := metadataString(v)
	if len(s) != 14 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("20060102150405", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
