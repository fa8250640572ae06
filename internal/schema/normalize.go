package schema

import (
	"math"
	"strings"
)

// DisplayPrecision is the number of decimal places numeric field values are
// rounded to when entering the editing model. The document conversion allows
// drift up to this precision on round-trip.
const DisplayPrecision = 4

var numericVRs = map[string]struct{}{
	"DS": {}, "FL": {}, "FD": {}, "IS": {}, "SL": {}, "SS": {}, "UL": {}, "US": {},
}

// InferDataType derives the semantic datatype from a field's VR and raw
// value. Lists are detected from the value shape; the VR decides
// number-vs-string for the elements.
func InferDataType(vr string, value any) DataType {
	numeric := isNumericVR(vr)
	switch v := value.(type) {
	case []any:
		if numeric || allNumbers(v) {
			return DataTypeListNumber
		}
		return DataTypeListString
	case float64, float32, int, int64:
		return DataTypeNumber
	default:
		if numeric {
			return DataTypeNumber
		}
		return DataTypeString
	}
}

func isNumericVR(vr string) bool {
	_, ok := numericVRs[strings.ToUpper(strings.TrimSpace(vr))]
	return ok
}

func allNumbers(values []any) bool {
	if len(values) == 0 {
		return false
	}
	for _, value := range values {
		switch value.(type) {
		case float64, float32, int, int64:
		default:
			return false
		}
	}
	return true
}

// RoundValue rounds numeric values (scalars and elements of lists) to the
// display precision. Non-numeric values pass through unchanged.
func RoundValue(value any) any {
	switch v := value.(type) {
	case float64:
		return roundFloat(v)
	case float32:
		return roundFloat(float64(v))
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = RoundValue(item)
		}
		return out
	default:
		return value
	}
}

func roundFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	shift := math.Pow10(DisplayPrecision)
	return math.Round(v*shift) / shift
}

// DefaultValueFor returns the zero value a freshly seeded series field gets
// for the datatype: 0 for numbers, an empty list for list types, "" otherwise.
func DefaultValueFor(dataType DataType) any {
	switch dataType {
	case DataTypeNumber:
		return float64(0)
	case DataTypeListString, DataTypeListNumber:
		return []any{}
	default:
		return ""
	}
}

// NumberOf extracts a float64 from a JSON-decoded scalar, reporting whether
// the value was numeric.
func NumberOf(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
