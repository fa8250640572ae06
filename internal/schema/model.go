package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DataType is the semantic datatype driving how a field value is parsed and
// rendered.
type DataType string

const (
	DataTypeString     DataType = "string"
	DataTypeNumber     DataType = "number"
	DataTypeListString DataType = "list_string"
	DataTypeListNumber DataType = "list_number"
)

// IsList reports whether the datatype holds multiple values.
func (d DataType) IsList() bool {
	return d == DataTypeListString || d == DataTypeListNumber
}

// FieldType records a field's provenance.
type FieldType string

const (
	// FieldTypeStandard marks fields recognized by the DICOM dictionary.
	FieldTypeStandard FieldType = "standard"
	// FieldTypePrivate marks vendor-specific tags absent from the dictionary.
	FieldTypePrivate FieldType = "private"
	// FieldTypeCustom marks user-defined fields without a tag.
	FieldTypeCustom FieldType = "custom"
)

// Field is one named value with a validation rule, applied identically to
// every series of an acquisition.
type Field struct {
	// Tag is the DICOM group/element identifier ("0018,0080"). Empty for
	// derived or custom fields; Name is the identity fallback.
	Tag       string         `json:"tag,omitempty"`
	Name      string         `json:"name"`
	Keyword   string         `json:"keyword,omitempty"`
	Value     any            `json:"value,omitempty"`
	VR        string         `json:"vr,omitempty"`
	DataType  DataType       `json:"dataType,omitempty"`
	Rule      ValidationRule `json:"validationRule"`
	FieldType FieldType      `json:"fieldType,omitempty"`
}

// SeriesField is the value of one field within one series. Same shape as
// Field minus the VR, scoped to a single series index.
type SeriesField struct {
	Tag       string         `json:"tag,omitempty"`
	Name      string         `json:"name"`
	Keyword   string         `json:"keyword,omitempty"`
	Value     any            `json:"value,omitempty"`
	DataType  DataType       `json:"dataType,omitempty"`
	Rule      ValidationRule `json:"validationRule"`
	FieldType FieldType      `json:"fieldType,omitempty"`
}

// Series is one row of a multi-series acquisition (one echo, one direction).
type Series struct {
	// Name defaults to "Series NN" and need not be unique.
	Name   string        `json:"name"`
	Fields []SeriesField `json:"fields"`
}

// ValidationFunction is a named custom rule attached to an acquisition. The
// implementation and test cases are opaque to the editor beyond CRUD.
type ValidationFunction struct {
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Implementation string          `json:"implementation,omitempty"`
	Fields         []string        `json:"fields,omitempty"`
	TestCases      json.RawMessage `json:"testCases,omitempty"`
}

// Acquisition is one scan protocol being edited.
type Acquisition struct {
	// ID is assigned at creation time and stable for the acquisition's
	// lifetime.
	ID                string               `json:"id"`
	ProtocolName      string               `json:"protocolName"`
	SeriesDescription string               `json:"seriesDescription,omitempty"`
	Fields            []Field              `json:"acquisitionFields"`
	Series            []Series             `json:"series"`
	Functions         []ValidationFunction `json:"validationFunctions,omitempty"`
}

// NewAcquisitionID returns a fresh opaque acquisition identifier.
func NewAcquisitionID() string {
	return uuid.NewString()
}

// SeriesName returns the default display label for the 1-based series number.
func SeriesName(n int) string {
	return fmt.Sprintf("Series %d", n)
}

// NormalizeTag canonicalizes a DICOM tag string: parentheses stripped,
// uppercase hex, "GGGG,EEEE". Returns "" for unparseable input.
func NormalizeTag(tag string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(tag))
	cleaned = strings.TrimPrefix(cleaned, "(")
	cleaned = strings.TrimSuffix(cleaned, ")")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	parts := strings.Split(cleaned, ",")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return ""
	}
	for _, part := range parts {
		for _, r := range part {
			if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
				return ""
			}
		}
	}
	return parts[0] + "," + parts[1]
}

// Key returns the logical identity of the field: the normalized tag when
// present, else the lowercased name.
func (f Field) Key() string {
	return fieldKey(f.Tag, f.Name)
}

// Key returns the logical identity of the series field.
func (f SeriesField) Key() string {
	return fieldKey(f.Tag, f.Name)
}

func fieldKey(tag, name string) string {
	if normalized := NormalizeTag(tag); normalized != "" {
		return normalized
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// MatchesKey reports whether the field is identified by key, matching by tag
// first and falling back to a case-insensitive name comparison.
func (f Field) MatchesKey(key string) bool {
	return matchesKey(f.Tag, f.Name, key)
}

// MatchesKey reports whether the series field is identified by key.
func (f SeriesField) MatchesKey(key string) bool {
	return matchesKey(f.Tag, f.Name, key)
}

func matchesKey(tag, name, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	if normalized := NormalizeTag(key); normalized != "" {
		return NormalizeTag(tag) == normalized
	}
	return strings.EqualFold(strings.TrimSpace(name), key)
}

// ToSeriesField projects an acquisition-level field into the series tier.
func (f Field) ToSeriesField() SeriesField {
	return SeriesField{
		Tag:       f.Tag,
		Name:      f.Name,
		Keyword:   f.Keyword,
		Value:     CloneValue(f.Value),
		DataType:  f.DataType,
		Rule:      f.Rule.Clone(),
		FieldType: f.FieldType,
	}
}

// ToField projects a series field back into the acquisition tier. The VR is
// not recoverable from the series tier and is left for re-inference.
func (f SeriesField) ToField() Field {
	return Field{
		Tag:       f.Tag,
		Name:      f.Name,
		Keyword:   f.Keyword,
		Value:     CloneValue(f.Value),
		DataType:  f.DataType,
		Rule:      f.Rule.Clone(),
		FieldType: f.FieldType,
	}
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	clone := f
	clone.Value = CloneValue(f.Value)
	clone.Rule = f.Rule.Clone()
	return clone
}

// Clone returns a deep copy of the series field.
func (f SeriesField) Clone() SeriesField {
	clone := f
	clone.Value = CloneValue(f.Value)
	clone.Rule = f.Rule.Clone()
	return clone
}

// Clone returns a deep copy of the series.
func (s Series) Clone() Series {
	clone := Series{Name: s.Name}
	if s.Fields != nil {
		clone.Fields = make([]SeriesField, len(s.Fields))
		for i, field := range s.Fields {
			clone.Fields[i] = field.Clone()
		}
	}
	return clone
}

// Clone returns a deep copy of the validation function.
func (v ValidationFunction) Clone() ValidationFunction {
	clone := v
	if v.Fields != nil {
		clone.Fields = append([]string{}, v.Fields...)
	}
	if v.TestCases != nil {
		clone.TestCases = append(json.RawMessage{}, v.TestCases...)
	}
	return clone
}

// Clone returns a deep copy of the acquisition.
func (a Acquisition) Clone() Acquisition {
	clone := a
	if a.Fields != nil {
		clone.Fields = make([]Field, len(a.Fields))
		for i, field := range a.Fields {
			clone.Fields[i] = field.Clone()
		}
	}
	if a.Series != nil {
		clone.Series = make([]Series, len(a.Series))
		for i, series := range a.Series {
			clone.Series[i] = series.Clone()
		}
	}
	if a.Functions != nil {
		clone.Functions = make([]ValidationFunction, len(a.Functions))
		for i, fn := range a.Functions {
			clone.Functions[i] = fn.Clone()
		}
	}
	return clone
}

// CloneValue deep-copies a field value (scalar, list, or nested structure
// decoded from JSON).
func CloneValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = CloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = CloneValue(item)
		}
		return out
	default:
		return v
	}
}
