package schema

import "strings"

// RuleType discriminates the validation-rule variant attached to a field.
type RuleType string

const (
	// RuleExact requires the observed value to equal the field value.
	RuleExact RuleType = "exact"
	// RuleTolerance accepts a numeric value within value ± tolerance.
	RuleTolerance RuleType = "tolerance"
	// RuleRange accepts a numeric value within [min, max].
	RuleRange RuleType = "range"
	// RuleContains requires the observed string to contain a substring.
	RuleContains RuleType = "contains"
	// RuleContainsAny accepts a list containing at least one of the listed values.
	RuleContainsAny RuleType = "contains_any"
	// RuleContainsAll requires a list to contain every listed value.
	RuleContainsAll RuleType = "contains_all"
)

// ValidationRule is the tagged variant describing how a field value is
// checked during compliance validation. Only the parameters of the active
// variant are populated.
type ValidationRule struct {
	Type        RuleType `json:"type"`
	Tolerance   *float64 `json:"tolerance,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Contains    string   `json:"contains,omitempty"`
	ContainsAny []any    `json:"containsAny,omitempty"`
	ContainsAll []any    `json:"containsAll,omitempty"`
}

// ExactRule returns the default rule.
func ExactRule() ValidationRule {
	return ValidationRule{Type: RuleExact}
}

// ToleranceRule returns a tolerance rule with the given half-width.
func ToleranceRule(tolerance float64) ValidationRule {
	return ValidationRule{Type: RuleTolerance, Tolerance: &tolerance}
}

// RangeRule returns a range rule over [min, max].
func RangeRule(min, max float64) ValidationRule {
	return ValidationRule{Type: RuleRange, Min: &min, Max: &max}
}

// Clone returns a deep copy of the rule.
func (r ValidationRule) Clone() ValidationRule {
	clone := r
	if r.Tolerance != nil {
		v := *r.Tolerance
		clone.Tolerance = &v
	}
	if r.Min != nil {
		v := *r.Min
		clone.Min = &v
	}
	if r.Max != nil {
		v := *r.Max
		clone.Max = &v
	}
	if r.ContainsAny != nil {
		clone.ContainsAny = append([]any{}, r.ContainsAny...)
	}
	if r.ContainsAll != nil {
		clone.ContainsAll = append([]any{}, r.ContainsAll...)
	}
	return clone
}

// Complete reports whether the rule's required sub-parameters are present.
// The exact rule has none and is always complete.
func (r ValidationRule) Complete() bool {
	switch r.Type {
	case RuleTolerance:
		return r.Tolerance != nil
	case RuleRange:
		return r.Min != nil && r.Max != nil
	case RuleContains:
		return strings.TrimSpace(r.Contains) != ""
	case RuleContainsAny:
		return len(r.ContainsAny) > 0
	case RuleContainsAll:
		return len(r.ContainsAll) > 0
	default:
		return true
	}
}

// suggestedTolerances maps field names that conventionally vary within an
// acceptable tolerance to the suggested half-width, in the field's native
// unit (milliseconds for timing fields, degrees for FlipAngle).
var suggestedTolerances = map[string]float64{
	"repetitiontime":        0.1,
	"echotime":              0.1,
	"inversiontime":         0.1,
	"flipangle":             1,
	"slicethickness":        0.1,
	"imagingfrequency":      0.1,
	"magneticfieldstrength": 0.05,
	"sar":                   0.1,
	"temporalresolution":    0.1,
	"pixelbandwidth":        1,
}

// multiValuedFields names fields that are multi-valued by convention; their
// raw values are split into lists checked with contains_any.
var multiValuedFields = map[string]struct{}{
	"scanoptions":      {},
	"imagetype":        {},
	"sequencevariant":  {},
	"scanningsequence": {},
}

// SuggestedTolerance returns the conventional tolerance for the field name,
// if one exists.
func SuggestedTolerance(name string) (float64, bool) {
	tolerance, ok := suggestedTolerances[foldFieldName(name)]
	return tolerance, ok
}

// MultiValuedByConvention reports whether the named field conventionally
// carries multiple values.
func MultiValuedByConvention(name string) bool {
	_, ok := multiValuedFields[foldFieldName(name)]
	return ok
}

// InferRule picks a validation-rule type for a freshly decoded field from its
// name, datatype, and value. Fields with a conventional tolerance get a
// tolerance rule; multi-valued-by-convention fields get contains_any with the
// value pre-split into a list; everything else defaults to exact.
func InferRule(name string, dataType DataType, value any) ValidationRule {
	if MultiValuedByConvention(name) {
		return ValidationRule{Type: RuleContainsAny, ContainsAny: SplitMultiValue(value)}
	}
	if dataType == DataTypeNumber {
		if tolerance, ok := SuggestedTolerance(name); ok {
			return ToleranceRule(tolerance)
		}
	}
	return ExactRule()
}

// SplitMultiValue turns a raw multi-valued DICOM value into a list. Strings
// are split on the DICOM multi-value separator (backslash); lists pass
// through; scalars become single-element lists.
func SplitMultiValue(value any) []any {
	switch v := value.(type) {
	case nil:
		return []any{}
	case []any:
		return append([]any{}, v...)
	case string:
		parts := strings.Split(v, `\`)
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return []any{v}
	}
}

func foldFieldName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))
}
