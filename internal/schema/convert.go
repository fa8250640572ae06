package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metadata carries the document-level descriptive properties of a schema.
type Metadata struct {
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Document is the persisted schema form: acquisitions keyed by protocol name
// plus document metadata.
type Document struct {
	Acquisitions map[string]DocumentAcquisition `json:"acquisitions"`
	Name         string                         `json:"name,omitempty"`
	Description  string                         `json:"description,omitempty"`
	Version      string                         `json:"version,omitempty"`
	Authors      []string                       `json:"authors,omitempty"`
	Tags         []string                       `json:"tags,omitempty"`
}

// DocumentAcquisition is one acquisition in the persisted form.
type DocumentAcquisition struct {
	Description string               `json:"description,omitempty"`
	Fields      []DocumentField      `json:"fields"`
	Series      []DocumentSeries     `json:"series"`
	Rules       []ValidationFunction `json:"rules,omitempty"`
}

// DocumentSeries is one series row in the persisted form.
type DocumentSeries struct {
	Name   string          `json:"name"`
	Fields []DocumentField `json:"fields"`
}

// DocumentField is the persisted field shape. The active validation rule is
// implied by which constraint parameters are present; a bare value means
// exact.
type DocumentField struct {
	Field       string   `json:"field"`
	Tag         string   `json:"tag,omitempty"`
	Value       any      `json:"value,omitempty"`
	Tolerance   *float64 `json:"tolerance,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Contains    string   `json:"contains,omitempty"`
	ContainsAny []any    `json:"contains_any,omitempty"`
	ContainsAll []any    `json:"contains_all,omitempty"`
}

// ParseDocument decodes a schema document from JSON.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document: %w", err)
	}
	if doc.Acquisitions == nil {
		return nil, fmt.Errorf("parse schema document: missing acquisitions")
	}
	return &doc, nil
}

// Marshal renders the document as indented JSON with a trailing newline,
// the canonical persisted form.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema document: %w", err)
	}
	return append(data, '\n'), nil
}

// Metadata extracts the document-level metadata.
func (d *Document) Metadata() Metadata {
	return Metadata{
		Name:        d.Name,
		Description: d.Description,
		Version:     d.Version,
		Authors:     append([]string{}, d.Authors...),
		Tags:        append([]string{}, d.Tags...),
	}
}

// AcquisitionsFromDocument converts the persisted form into editable
// acquisitions, sorted by protocol name for determinism. The validation rule
// and datatype of every field are re-derived from its raw value and the
// constraint parameters present in the document.
func AcquisitionsFromDocument(doc *Document) []Acquisition {
	names := make([]string, 0, len(doc.Acquisitions))
	for name := range doc.Acquisitions {
		names = append(names, name)
	}
	sort.Strings(names)

	acquisitions := make([]Acquisition, 0, len(names))
	for _, name := range names {
		entry := doc.Acquisitions[name]
		acq := Acquisition{
			ID:                NewAcquisitionID(),
			ProtocolName:      name,
			SeriesDescription: entry.Description,
		}
		for _, docField := range entry.Fields {
			acq.Fields = append(acq.Fields, fieldFromDocument(docField))
		}
		for i, docSeries := range entry.Series {
			series := Series{Name: strings.TrimSpace(docSeries.Name)}
			if series.Name == "" {
				series.Name = SeriesName(i + 1)
			}
			for _, docField := range docSeries.Fields {
				series.Fields = append(series.Fields, fieldFromDocument(docField).ToSeriesField())
			}
			acq.Series = append(acq.Series, series)
		}
		for _, rule := range entry.Rules {
			acq.Functions = append(acq.Functions, rule.Clone())
		}
		acquisitions = append(acquisitions, acq)
	}
	return acquisitions
}

// DocumentFromAcquisitions converts editable acquisitions back into the
// persisted form, attaching the supplied metadata.
func DocumentFromAcquisitions(acquisitions []Acquisition, meta Metadata) *Document {
	doc := &Document{
		Acquisitions: make(map[string]DocumentAcquisition, len(acquisitions)),
		Name:         meta.Name,
		Description:  meta.Description,
		Version:      meta.Version,
		Authors:      append([]string{}, meta.Authors...),
		Tags:         append([]string{}, meta.Tags...),
	}
	for _, acq := range acquisitions {
		entry := DocumentAcquisition{Description: acq.SeriesDescription}
		for _, field := range acq.Fields {
			entry.Fields = append(entry.Fields, documentField(field.Tag, field.Name, field.Value, field.Rule))
		}
		for _, series := range acq.Series {
			docSeries := DocumentSeries{Name: series.Name}
			for _, field := range series.Fields {
				docSeries.Fields = append(docSeries.Fields, documentField(field.Tag, field.Name, field.Value, field.Rule))
			}
			entry.Series = append(entry.Series, docSeries)
		}
		for _, fn := range acq.Functions {
			entry.Rules = append(entry.Rules, fn.Clone())
		}
		doc.Acquisitions[acq.ProtocolName] = entry
	}
	return doc
}

func fieldFromDocument(docField DocumentField) Field {
	value := RoundValue(CloneValue(docField.Value))
	dataType := InferDataType("", value)
	return Field{
		Tag:       NormalizeTag(docField.Tag),
		Name:      strings.TrimSpace(docField.Field),
		Value:     value,
		DataType:  dataType,
		Rule:      ruleFromDocument(docField),
		FieldType: ClassifyFieldType(docField.Tag),
	}
}

func ruleFromDocument(docField DocumentField) ValidationRule {
	switch {
	case docField.Tolerance != nil:
		return ToleranceRule(*docField.Tolerance)
	case docField.Min != nil && docField.Max != nil:
		return RangeRule(*docField.Min, *docField.Max)
	case strings.TrimSpace(docField.Contains) != "":
		return ValidationRule{Type: RuleContains, Contains: docField.Contains}
	case len(docField.ContainsAny) > 0:
		return ValidationRule{Type: RuleContainsAny, ContainsAny: append([]any{}, docField.ContainsAny...)}
	case len(docField.ContainsAll) > 0:
		return ValidationRule{Type: RuleContainsAll, ContainsAll: append([]any{}, docField.ContainsAll...)}
	default:
		return ExactRule()
	}
}

func documentField(tag, name string, value any, rule ValidationRule) DocumentField {
	docField := DocumentField{
		Field: name,
		Tag:   NormalizeTag(tag),
		Value: RoundValue(CloneValue(value)),
	}
	switch rule.Type {
	case RuleTolerance:
		docField.Tolerance = rule.Tolerance
	case RuleRange:
		docField.Min = rule.Min
		docField.Max = rule.Max
	case RuleContains:
		docField.Contains = rule.Contains
	case RuleContainsAny:
		docField.ContainsAny = append([]any{}, rule.ContainsAny...)
	case RuleContainsAll:
		docField.ContainsAll = append([]any{}, rule.ContainsAll...)
	}
	return docField
}
