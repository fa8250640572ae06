package workspace

import (
	"testing"

	"dicomschema/internal/schema"
)

func TestIncompleteNilValue(t *testing.T) {
	acq := schema.Acquisition{
		ID: "acq-1",
		Fields: []schema.Field{
			{Name: "RepetitionTime", Value: nil, Rule: schema.ExactRule()},
		},
	}

	findings := Incomplete(acq)
	if len(findings) != 1 {
		t.Fatalf("findings = %+v, want one", findings)
	}
	f := findings[0]
	if f.Reason != "value not set" || f.SeriesIndex != -1 || f.FieldName != "RepetitionTime" {
		t.Errorf("unexpected finding: %+v", f)
	}
}

func TestZeroValuesAreComplete(t *testing.T) {
	acq := schema.Acquisition{
		ID: "acq-1",
		Fields: []schema.Field{
			{Name: "NumberOfAverages", Value: 0.0, Rule: schema.ExactRule()},
			{Name: "SequenceName", Value: "", Rule: schema.ExactRule()},
			{Name: "ScanOptions", Value: []any{}, Rule: schema.ExactRule()},
		},
	}

	if !IsComplete(acq) {
		t.Errorf("zero, empty string, and empty list must be valid exact-match targets: %+v", Incomplete(acq))
	}
}

func TestIncompleteRuleParameters(t *testing.T) {
	acq := schema.Acquisition{
		ID: "acq-1",
		Fields: []schema.Field{
			{Name: "RepetitionTime", Value: 9000.0, Rule: schema.ValidationRule{Type: schema.RuleTolerance}},
		},
	}

	findings := Incomplete(acq)
	if len(findings) != 1 || findings[0].Reason != "validation rule parameters missing" {
		t.Fatalf("findings = %+v", findings)
	}
}

func TestIncompleteSeriesFields(t *testing.T) {
	acq := schema.Acquisition{
		ID: "acq-1",
		Series: []schema.Series{
			{Name: "Series 1", Fields: []schema.SeriesField{
				{Name: "EchoTime", Value: 4.92, Rule: schema.ExactRule()},
			}},
			{Name: "Series 2", Fields: []schema.SeriesField{
				{Name: "EchoTime", Value: nil, Rule: schema.ExactRule()},
			}},
			{Name: "Series 3"},
		},
	}

	findings := Incomplete(acq)
	if len(findings) != 2 {
		t.Fatalf("findings = %+v, want unset value in series 1 and missing field in series 2", findings)
	}
	if findings[0].SeriesIndex != 1 || findings[0].Reason != "value not set" {
		t.Errorf("first finding: %+v", findings[0])
	}
	if findings[1].SeriesIndex != 2 || findings[1].Reason != "missing from series" {
		t.Errorf("second finding: %+v", findings[1])
	}
}

func TestCompleteAcquisition(t *testing.T) {
	tolerance := 0.1
	acq := schema.Acquisition{
		ID: "acq-1",
		Fields: []schema.Field{
			{Name: "RepetitionTime", Value: 9000.0, Rule: schema.ValidationRule{Type: schema.RuleTolerance, Tolerance: &tolerance}},
		},
		Series: []schema.Series{
			{Name: "Series 1", Fields: []schema.SeriesField{
				{Name: "EchoTime", Value: 4.92, Rule: schema.ExactRule()},
			}},
		},
	}

	if !IsComplete(acq) {
		t.Errorf("acquisition should be complete: %+v", Incomplete(acq))
	}
}
