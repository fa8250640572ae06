package workspace

import (
	"strings"

	"dicomschema/internal/schema"
)

// SeriesFieldUpdate names the properties UpdateSeries may change on one
// series field. Nil pointers leave the property untouched.
type SeriesFieldUpdate struct {
	Value *any
	Rule  *schema.ValidationRule
}

// UpdateSeries updates the field identified by fieldKey at the given series
// index, creating the field entry (and any missing series up to the index,
// with default names) when absent.
func (w Workspace) UpdateSeries(id string, seriesIndex int, fieldKey string, update SeriesFieldUpdate) Workspace {
	if seriesIndex < 0 {
		return w
	}
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		for len(acq.Series) <= seriesIndex {
			acq.Series = append(acq.Series, schema.Series{Name: schema.SeriesName(len(acq.Series) + 1)})
		}
		series := &acq.Series[seriesIndex]
		for i := range series.Fields {
			if series.Fields[i].MatchesKey(fieldKey) {
				if update.Value != nil {
					series.Fields[i].Value = schema.CloneValue(*update.Value)
				}
				if update.Rule != nil {
					series.Fields[i].Rule = update.Rule.Clone()
				}
				return
			}
		}
		field := schema.SeriesField{Name: fieldKey, Rule: schema.ExactRule()}
		if normalized := schema.NormalizeTag(fieldKey); normalized != "" {
			field.Tag = normalized
			field.Name = normalized
		}
		if update.Value != nil {
			field.Value = schema.CloneValue(*update.Value)
			field.DataType = schema.InferDataType("", field.Value)
		}
		if update.Rule != nil {
			field.Rule = update.Rule.Clone()
		}
		series.Fields = append(series.Fields, field)
	})
}

// AddSeries appends a new series. When prior series exist, the new series is
// seeded verbatim from the nearest non-empty series: same field identities,
// same values. Identities whose values disagree across the existing series
// fall back to the datatype default instead.
func (w Workspace) AddSeries(id string) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		name := schema.SeriesName(len(acq.Series) + 1)

		var seed *schema.Series
		for i := len(acq.Series) - 1; i >= 0; i-- {
			if len(acq.Series[i].Fields) > 0 {
				seed = &acq.Series[i]
				break
			}
		}
		if seed == nil {
			acq.Series = append(acq.Series, schema.Series{Name: name})
			return
		}

		fields := make([]schema.SeriesField, 0, len(seed.Fields))
		for _, field := range seed.Fields {
			clone := field.Clone()
			if !valueAgreesAcrossSeries(acq.Series, field.Key()) {
				clone.Value = schema.DefaultValueFor(field.DataType)
			}
			fields = append(fields, clone)
		}
		acq.Series = append(acq.Series, schema.Series{Name: name, Fields: fields})
	})
}

// DeleteSeries removes the series at the given index.
func (w Workspace) DeleteSeries(id string, seriesIndex int) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		if seriesIndex < 0 || seriesIndex >= len(acq.Series) {
			return
		}
		acq.Series = append(acq.Series[:seriesIndex], acq.Series[seriesIndex+1:]...)
	})
}

// RenameSeries sets the display name of the series at the given index.
// Names are not required to be unique.
func (w Workspace) RenameSeries(id string, seriesIndex int, name string) Workspace {
	return w.withAcquisition(id, func(acq *schema.Acquisition) {
		if seriesIndex < 0 || seriesIndex >= len(acq.Series) {
			return
		}
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			acq.Series[seriesIndex].Name = trimmed
		}
	})
}

// valueAgreesAcrossSeries reports whether every series carrying the field
// holds the same value for it.
func valueAgreesAcrossSeries(series []schema.Series, key string) bool {
	var reference any
	seen := false
	for _, s := range series {
		for _, field := range s.Fields {
			if !field.MatchesKey(key) {
				continue
			}
			if !seen {
				reference = field.Value
				seen = true
				continue
			}
			if !valuesEqual(reference, field.Value) {
				return false
			}
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	listA, okA := a.([]any)
	listB, okB := b.([]any)
	if okA && okB {
		if len(listA) != len(listB) {
			return false
		}
		for i := range listA {
			if !valuesEqual(listA[i], listB[i]) {
				return false
			}
		}
		return true
	}
	if okA || okB {
		return false
	}
	return a == b
}
