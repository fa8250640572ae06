package schema

import "strings"

// FieldDefinition is one entry of the DICOM field dictionary bundled with the
// analysis package, as surfaced by the engine's field lookups.
type FieldDefinition struct {
	Tag         string    `json:"tag,omitempty"`
	Name        string    `json:"name"`
	Keyword     string    `json:"keyword,omitempty"`
	VR          string    `json:"vr,omitempty"`
	Description string    `json:"description,omitempty"`
	FieldType   FieldType `json:"fieldType,omitempty"`
}

// NewFieldFromDefinition builds an acquisition-level field from a dictionary
// definition: provenance classified, datatype inferred from the VR, and the
// default validation rule picked for the field name.
func NewFieldFromDefinition(def FieldDefinition) Field {
	fieldType := def.FieldType
	if fieldType == "" {
		fieldType = ClassifyFieldType(def.Tag)
	}
	dataType := InferDataType(def.VR, nil)
	if MultiValuedByConvention(def.Name) {
		dataType = DataTypeListString
	}
	return Field{
		Tag:       NormalizeTag(def.Tag),
		Name:      strings.TrimSpace(def.Name),
		Keyword:   strings.TrimSpace(def.Keyword),
		Value:     DefaultValueFor(dataType),
		VR:        strings.ToUpper(strings.TrimSpace(def.VR)),
		DataType:  dataType,
		Rule:      InferRule(def.Name, dataType, nil),
		FieldType: fieldType,
	}
}

// ClassifyFieldType derives field provenance from its tag: no tag means
// custom, odd group numbers are vendor-private, everything else is standard.
func ClassifyFieldType(tag string) FieldType {
	normalized := NormalizeTag(tag)
	if normalized == "" {
		return FieldTypeCustom
	}
	group := normalized[:4]
	last := group[len(group)-1]
	if last == '1' || last == '3' || last == '5' || last == '7' || last == '9' ||
		last == 'B' || last == 'D' || last == 'F' {
		return FieldTypePrivate
	}
	return FieldTypeStandard
}
