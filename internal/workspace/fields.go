package workspace

import (
	"strings"

	"dicomschema/internal/schema"
)

// FieldLevel names the tier a field lives in.
type FieldLevel string

const (
	LevelAcquisition FieldLevel = "acquisition"
	LevelSeries      FieldLevel = "series"
)

// ExpansionMode controls how a field's value is distributed when converting
// to the series tier.
type ExpansionMode string

const (
	// ModeSingleSeries replicates the current value unchanged into every
	// existing series (or one fresh series if none exist).
	ModeSingleSeries ExpansionMode = "single-series"
	// ModeSeparateSeries explodes a list value into one series per element,
	// taking the cross product with any pre-existing series.
	ModeSeparateSeries ExpansionMode = "separate-series"
)

// FieldUpdate names the field properties UpdateField may change. Nil pointers
// leave the property untouched.
type FieldUpdate struct {
	Value    *any
	Rule     *schema.ValidationRule
	DataType *schema.DataType
	Name     *string
	Keyword  *string
}

// UpdateField applies updates to the field identified by fieldKey wherever it
// currently lives: the acquisition tier, or every series' field list. A field
// is never half updated.
func (w Workspace) UpdateField(id, fieldKey string, update FieldUpdate) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		for i := range acq.Fields {
			if acq.Fields[i].MatchesKey(fieldKey) {
				applyFieldUpdate(&acq.Fields[i], update)
			}
		}
		for s := range acq.Series {
			for i := range acq.Series[s].Fields {
				if acq.Series[s].Fields[i].MatchesKey(fieldKey) {
					applySeriesFieldUpdate(&acq.Series[s].Fields[i], update)
				}
			}
		}
	})
}

// DeleteField removes the field identified by fieldKey from the acquisition
// tier and from every series.
func (w Workspace) DeleteField(id, fieldKey string) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		acq.Fields = removeAcquisitionField(acq.Fields, fieldKey)
		for s := range acq.Series {
			acq.Series[s].Fields = removeSeriesField(acq.Series[s].Fields, fieldKey)
		}
	})
}

// ConvertFieldLevel moves a field between tiers. Converting to the series
// tier requires an expansion mode; separate-series is valid only when the
// field's current value is a list and is otherwise a no-op.
func (w Workspace) ConvertFieldLevel(id, fieldKey string, to FieldLevel, mode ExpansionMode) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		switch to {
		case LevelAcquisition:
			convertToAcquisition(acq, fieldKey)
		case LevelSeries:
			convertToSeries(acq, fieldKey, mode)
		}
	})
}

// AddFields appends fields at acquisition level for each key, classifying
// each through the dictionary lookup. Keys already present (by tag, then by
// case-insensitive name) are skipped. A nil lookup classifies every key as a
// custom field.
func (w Workspace) AddFields(id string, fieldKeys []string, lookup func(string) (schema.FieldDefinition, bool)) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		for _, key := range fieldKeys {
			key = strings.TrimSpace(key)
			if key == "" || acquisitionHasField(acq, key) {
				continue
			}
			var def schema.FieldDefinition
			found := false
			if lookup != nil {
				def, found = lookup(key)
			}
			if !found {
				def = schema.FieldDefinition{Name: key, FieldType: schema.FieldTypeCustom}
			}
			field := schema.NewFieldFromDefinition(def)
			if acquisitionHasField(acq, field.Key()) {
				continue
			}
			acq.Fields = append(acq.Fields, field)
		}
	})
}

func acquisitionHasField(acq *schema.Acquisition, key string) bool {
	for _, field := range acq.Fields {
		if field.MatchesKey(key) {
			return true
		}
	}
	for _, series := range acq.Series {
		for _, field := range series.Fields {
			if field.MatchesKey(key) {
				return true
			}
		}
	}
	return false
}

func applyFieldUpdate(field *schema.Field, update FieldUpdate) {
	if update.Value != nil {
		field.Value = schema.CloneValue(*update.Value)
	}
	if update.Rule != nil {
		field.Rule = update.Rule.Clone()
	}
	if update.DataType != nil {
		field.DataType = *update.DataType
	}
	if update.Name != nil {
		field.Name = *update.Name
	}
	if update.Keyword != nil {
		field.Keyword = *update.Keyword
	}
}

func applySeriesFieldUpdate(field *schema.SeriesField, update FieldUpdate) {
	if update.Value != nil {
		field.Value = schema.CloneValue(*update.Value)
	}
	if update.Rule != nil {
		field.Rule = update.Rule.Clone()
	}
	if update.DataType != nil {
		field.DataType = *update.DataType
	}
	if update.Name != nil {
		field.Name = *update.Name
	}
	if update.Keyword != nil {
		field.Keyword = *update.Keyword
	}
}

func removeAcquisitionField(fields []schema.Field, key string) []schema.Field {
	out := fields[:0]
	for _, field := range fields {
		if !field.MatchesKey(key) {
			out = append(out, field)
		}
	}
	return out
}

func removeSeriesField(fields []schema.SeriesField, key string) []schema.SeriesField {
	out := fields[:0]
	for _, field := range fields {
		if !field.MatchesKey(key) {
			out = append(out, field)
		}
	}
	return out
}

// convertToAcquisition concentrates a field at acquisition level: the
// acquisition-level copy is preferred as the representative; otherwise the
// first series carrying the field supplies it. The field is removed from
// every series either way.
func convertToAcquisition(acq *schema.Acquisition, key string) {
	var representative *schema.Field
	for i := range acq.Fields {
		if acq.Fields[i].MatchesKey(key) {
			field := acq.Fields[i].Clone()
			representative = &field
			break
		}
	}
	if representative == nil {
		for _, series := range acq.Series {
			for _, field := range series.Fields {
				if field.MatchesKey(key) {
					converted := field.ToField()
					representative = &converted
					break
				}
			}
			if representative != nil {
				break
			}
		}
	}
	if representative == nil {
		return
	}

	for s := range acq.Series {
		acq.Series[s].Fields = removeSeriesField(acq.Series[s].Fields, key)
	}
	acq.Fields = removeAcquisitionField(acq.Fields, key)
	acq.Fields = append(acq.Fields, *representative)
}

func convertToSeries(acq *schema.Acquisition, key string, mode ExpansionMode) {
	var source *schema.Field
	for i := range acq.Fields {
		if acq.Fields[i].MatchesKey(key) {
			field := acq.Fields[i].Clone()
			source = &field
			break
		}
	}
	if source == nil {
		return
	}

	switch mode {
	case ModeSingleSeries:
		acq.Fields = removeAcquisitionField(acq.Fields, key)
		if len(acq.Series) == 0 {
			acq.Series = append(acq.Series, schema.Series{Name: schema.SeriesName(1)})
		}
		for s := range acq.Series {
			acq.Series[s].Fields = removeSeriesField(acq.Series[s].Fields, key)
			acq.Series[s].Fields = append(acq.Series[s].Fields, source.ToSeriesField())
		}
	case ModeSeparateSeries:
		elements, ok := source.Value.([]any)
		if !ok || len(elements) == 0 {
			return
		}
		acq.Fields = removeAcquisitionField(acq.Fields, key)

		elementField := func(value any) schema.SeriesField {
			field := source.ToSeriesField()
			field.Value = schema.CloneValue(value)
			if field.DataType == schema.DataTypeListNumber {
				field.DataType = schema.DataTypeNumber
			} else if field.DataType == schema.DataTypeListString {
				field.DataType = schema.DataTypeString
			}
			return field
		}

		var expanded []schema.Series
		if len(acq.Series) == 0 {
			for _, element := range elements {
				expanded = append(expanded, schema.Series{Fields: []schema.SeriesField{elementField(element)}})
			}
		} else {
			// Cross product: every existing series duplicated once per element.
			for _, series := range acq.Series {
				for _, element := range elements {
					clone := series.Clone()
					clone.Fields = removeSeriesField(clone.Fields, key)
					clone.Fields = append(clone.Fields, elementField(element))
					expanded = append(expanded, clone)
				}
			}
		}
		for i := range expanded {
			expanded[i].Name = schema.SeriesName(i + 1)
		}
		acq.Series = expanded
	}
}
