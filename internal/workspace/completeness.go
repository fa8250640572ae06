package workspace

import "dicomschema/internal/schema"

// IncompleteField describes one reason an acquisition is not ready for
// schema export. SeriesIndex is -1 for acquisition-level findings.
type IncompleteField struct {
	AcquisitionID string
	FieldName     string
	FieldKey      string
	SeriesIndex   int
	Reason        string
}

// Incomplete reports every incomplete field of the acquisition. A field is
// incomplete only when its value is truly unset (nil); empty string, zero,
// and empty list are valid under the exact rule. It is also incomplete when a
// non-exact rule is missing its required sub-parameters. Series-level fields
// are checked per series index across max(1, series count), so a freshly
// added empty series is still checked against the field identities the other
// series carry.
func Incomplete(acq schema.Acquisition) []IncompleteField {
	var findings []IncompleteField

	for _, field := range acq.Fields {
		if field.Value == nil {
			findings = append(findings, IncompleteField{
				AcquisitionID: acq.ID,
				FieldName:     field.Name,
				FieldKey:      field.Key(),
				SeriesIndex:   -1,
				Reason:        "value not set",
			})
		}
		if !field.Rule.Complete() {
			findings = append(findings, IncompleteField{
				AcquisitionID: acq.ID,
				FieldName:     field.Name,
				FieldKey:      field.Key(),
				SeriesIndex:   -1,
				Reason:        "validation rule parameters missing",
			})
		}
	}

	expected := seriesFieldIdentities(acq.Series)
	if len(expected) == 0 {
		return findings
	}

	seriesCount := len(acq.Series)
	if seriesCount < 1 {
		seriesCount = 1
	}
	for index := 0; index < seriesCount; index++ {
		for _, identity := range expected {
			field, ok := findSeriesField(acq.Series, index, identity.key)
			if !ok {
				findings = append(findings, IncompleteField{
					AcquisitionID: acq.ID,
					FieldName:     identity.name,
					FieldKey:      identity.key,
					SeriesIndex:   index,
					Reason:        "missing from series",
				})
				continue
			}
			if field.Value == nil {
				findings = append(findings, IncompleteField{
					AcquisitionID: acq.ID,
					FieldName:     field.Name,
					FieldKey:      identity.key,
					SeriesIndex:   index,
					Reason:        "value not set",
				})
			}
			if !field.Rule.Complete() {
				findings = append(findings, IncompleteField{
					AcquisitionID: acq.ID,
					FieldName:     field.Name,
					FieldKey:      identity.key,
					SeriesIndex:   index,
					Reason:        "validation rule parameters missing",
				})
			}
		}
	}
	return findings
}

// IsComplete reports whether the acquisition has no incomplete fields.
func IsComplete(acq schema.Acquisition) bool {
	return len(Incomplete(acq)) == 0
}

type fieldIdentity struct {
	key  string
	name string
}

// seriesFieldIdentities collects the union of field identities across all
// series, ordered by first appearance.
func seriesFieldIdentities(series []schema.Series) []fieldIdentity {
	var identities []fieldIdentity
	seen := map[string]struct{}{}
	for _, s := range series {
		for _, field := range s.Fields {
			key := field.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			identities = append(identities, fieldIdentity{key: key, name: field.Name})
		}
	}
	return identities
}

func findSeriesField(series []schema.Series, index int, key string) (schema.SeriesField, bool) {
	if index < 0 || index >= len(series) {
		return schema.SeriesField{}, false
	}
	for _, field := range series[index].Fields {
		if field.MatchesKey(key) {
			return field, true
		}
	}
	return schema.SeriesField{}, false
}
