package ingest

import (
	"strings"

	"dicomschema/internal/engine"
	"dicomschema/internal/schema"
)

// NormalizeAcquisitions converts engine-decoded acquisitions into the editing
// model's shape: fresh ids, numeric values rounded to display precision,
// validation rules inferred per field, multi-valued-by-convention values
// pre-split into lists.
func NormalizeAcquisitions(raw []engine.AnalyzedAcquisition) []schema.Acquisition {
	out := make([]schema.Acquisition, 0, len(raw))
	for _, analyzed := range raw {
		out = append(out, normalizeAcquisition(analyzed))
	}
	return out
}

func normalizeAcquisition(raw engine.AnalyzedAcquisition) schema.Acquisition {
	acq := schema.Acquisition{
		ID:                schema.NewAcquisitionID(),
		ProtocolName:      strings.TrimSpace(raw.ProtocolName),
		SeriesDescription: strings.TrimSpace(raw.SeriesDescription),
	}
	for _, field := range raw.Fields {
		acq.Fields = append(acq.Fields, normalizeField(field))
	}
	for i, series := range raw.Series {
		name := strings.TrimSpace(series.Name)
		if name == "" {
			name = schema.SeriesName(i + 1)
		}
		normalized := schema.Series{Name: name}
		for _, field := range series.Fields {
			normalized.Fields = append(normalized.Fields, normalizeField(field).ToSeriesField())
		}
		acq.Series = append(acq.Series, normalized)
	}
	return acq
}

func normalizeField(raw engine.AnalyzedField) schema.Field {
	name := strings.TrimSpace(raw.Name)
	value := schema.RoundValue(raw.Value)
	dataType := schema.InferDataType(raw.VR, value)
	if schema.MultiValuedByConvention(name) {
		value = schema.SplitMultiValue(value)
		if dataType == schema.DataTypeNumber {
			dataType = schema.DataTypeListNumber
		} else if dataType != schema.DataTypeListNumber {
			dataType = schema.DataTypeListString
		}
	}
	return schema.Field{
		Tag:       schema.NormalizeTag(raw.Tag),
		Name:      name,
		Keyword:   strings.TrimSpace(raw.Keyword),
		Value:     value,
		VR:        strings.ToUpper(strings.TrimSpace(raw.VR)),
		DataType:  dataType,
		Rule:      schema.InferRule(name, dataType, value),
		FieldType: schema.ClassifyFieldType(raw.Tag),
	}
}
