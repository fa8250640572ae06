package workspace

import (
	"reflect"
	"testing"

	"dicomschema/internal/schema"
)

func testAcquisition() schema.Acquisition {
	return schema.Acquisition{
		ID:           "acq-1",
		ProtocolName: "t2_flair",
		Fields: []schema.Field{
			{Tag: "0018,0080", Name: "RepetitionTime", Value: 9000.0, DataType: schema.DataTypeNumber, Rule: schema.ToleranceRule(0.1)},
			{Tag: "0018,0081", Name: "EchoTime", Value: []any{10.0, 20.0}, DataType: schema.DataTypeListNumber, Rule: schema.ExactRule()},
		},
	}
}

func fieldTier(acq schema.Acquisition, key string) (atAcquisition bool, inSeries int) {
	for _, field := range acq.Fields {
		if field.MatchesKey(key) {
			atAcquisition = true
		}
	}
	for _, series := range acq.Series {
		for _, field := range series.Fields {
			if field.MatchesKey(key) {
				inSeries++
			}
		}
	}
	return atAcquisition, inSeries
}

func TestUpdateFieldAppliesEverywhere(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	ws = ws.ConvertFieldLevel(id, "0018,0081", LevelSeries, ModeSeparateSeries)

	value := any(15.0)
	ws = ws.UpdateField(id, "0018,0081", FieldUpdate{Value: &value})

	acq := ws.Acquisitions[0]
	for i, series := range acq.Series {
		for _, field := range series.Fields {
			if field.MatchesKey("0018,0081") && field.Value != 15.0 {
				t.Errorf("series %d not updated: %v", i, field.Value)
			}
		}
	}
}

func TestUpdateFieldUnknownIDIsNoop(t *testing.T) {
	ws := New().Add(testAcquisition())
	value := any(1.0)
	next := ws.UpdateField("missing", "0018,0080", FieldUpdate{Value: &value})
	if !reflect.DeepEqual(ws, next) {
		t.Error("unknown id must leave the workspace unchanged")
	}
}

func TestDeleteFieldRemovesFromBothTiers(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	ws = ws.ConvertFieldLevel(id, "EchoTime", LevelSeries, ModeSeparateSeries)
	ws = ws.DeleteField(id, "EchoTime")

	atAcq, inSeries := fieldTier(ws.Acquisitions[0], "0018,0081")
	if atAcq || inSeries > 0 {
		t.Errorf("field still present: acquisition=%v series=%d", atAcq, inSeries)
	}
}

func TestConvertSeparateSeriesFromZeroSeries(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID

	ws = ws.ConvertFieldLevel(id, "0018,0081", LevelSeries, ModeSeparateSeries)

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 2 {
		t.Fatalf("series count = %d, want 2", len(acq.Series))
	}
	wantValues := []any{10.0, 20.0}
	for i, series := range acq.Series {
		if len(series.Fields) != 1 {
			t.Fatalf("series %d field count = %d", i, len(series.Fields))
		}
		field := series.Fields[0]
		if field.Value != wantValues[i] {
			t.Errorf("series %d value = %v, want %v", i, field.Value, wantValues[i])
		}
		if field.DataType != schema.DataTypeNumber {
			t.Errorf("series %d datatype = %q, want scalar number", i, field.DataType)
		}
	}

	atAcq, _ := fieldTier(acq, "0018,0081")
	if atAcq {
		t.Error("field must leave the acquisition tier after conversion")
	}
}

func TestConvertSeparateSeriesCrossProduct(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID

	// First expansion: EchoTime [10,20] over zero series yields 2 series.
	ws = ws.ConvertFieldLevel(id, "EchoTime", LevelSeries, ModeSeparateSeries)
	// Second list field at acquisition level.
	value := any([]any{"P", "A"})
	dt := schema.DataTypeListString
	ws = ws.AddFields(id, []string{"PhaseEncodingDirection"}, nil)
	ws = ws.UpdateField(id, "PhaseEncodingDirection", FieldUpdate{Value: &value, DataType: &dt})

	ws = ws.ConvertFieldLevel(id, "PhaseEncodingDirection", LevelSeries, ModeSeparateSeries)

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 4 {
		t.Fatalf("series count = %d, want 4 (2x2 cross product)", len(acq.Series))
	}
	for i, series := range acq.Series {
		if series.Name != schema.SeriesName(i+1) {
			t.Errorf("series %d name = %q", i, series.Name)
		}
		if _, inSeries := fieldTier(acq, "phaseencodingdirection"); inSeries != 4 {
			t.Fatalf("expanded field present in %d series, want 4", inSeries)
		}
		if len(series.Fields) != 2 {
			t.Errorf("series %d carries %d fields, want 2", i, len(series.Fields))
		}
	}
}

func TestConvertSeparateSeriesRequiresListValue(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	next := ws.ConvertFieldLevel(id, "RepetitionTime", LevelSeries, ModeSeparateSeries)
	if !reflect.DeepEqual(ws, next) {
		t.Error("separate-series on a scalar value must be a no-op")
	}
}

func TestConvertSingleSeriesReplicatesValue(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	ws = ws.ConvertFieldLevel(id, "EchoTime", LevelSeries, ModeSeparateSeries)

	ws = ws.ConvertFieldLevel(id, "RepetitionTime", LevelSeries, ModeSingleSeries)

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 2 {
		t.Fatalf("series count = %d, want unchanged 2", len(acq.Series))
	}
	for i, series := range acq.Series {
		found := false
		for _, field := range series.Fields {
			if field.MatchesKey("0018,0080") {
				found = true
				if field.Value != 9000.0 {
					t.Errorf("series %d value = %v, want 9000 replicated", i, field.Value)
				}
			}
		}
		if !found {
			t.Errorf("series %d missing replicated field", i)
		}
	}
	atAcq, _ := fieldTier(acq, "0018,0080")
	if atAcq {
		t.Error("field must leave the acquisition tier")
	}
}

func TestConvertSingleSeriesCreatesFirstSeries(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID

	ws = ws.ConvertFieldLevel(id, "RepetitionTime", LevelSeries, ModeSingleSeries)

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 1 {
		t.Fatalf("series count = %d, want 1 freshly created", len(acq.Series))
	}
	if acq.Series[0].Name != "Series 1" {
		t.Errorf("series name = %q", acq.Series[0].Name)
	}
}

func TestTierInvariantThroughConversions(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID

	check := func(step string) {
		acq := ws.Acquisitions[0]
		atAcq, inSeries := fieldTier(acq, "0018,0080")
		switch {
		case atAcq && inSeries > 0:
			t.Fatalf("%s: field in both tiers", step)
		case !atAcq && inSeries == 0:
			t.Fatalf("%s: field in neither tier", step)
		case inSeries > 0 && inSeries != len(acq.Series):
			t.Fatalf("%s: field in %d of %d series", step, inSeries, len(acq.Series))
		}
	}

	check("initial")
	ws = ws.ConvertFieldLevel(id, "0018,0080", LevelSeries, ModeSingleSeries)
	check("to series")
	ws = ws.ConvertFieldLevel(id, "0018,0080", LevelAcquisition, "")
	check("back to acquisition")
	ws = ws.ConvertFieldLevel(id, "0018,0080", LevelSeries, ModeSingleSeries)
	check("to series again")
}

func TestConvertToAcquisitionTakesSeriesRepresentative(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	ws = ws.ConvertFieldLevel(id, "EchoTime", LevelSeries, ModeSeparateSeries)

	ws = ws.ConvertFieldLevel(id, "EchoTime", LevelAcquisition, "")

	acq := ws.Acquisitions[0]
	atAcq, inSeries := fieldTier(acq, "0018,0081")
	if !atAcq || inSeries > 0 {
		t.Fatalf("field not concentrated: acquisition=%v series=%d", atAcq, inSeries)
	}
	for _, field := range acq.Fields {
		if field.MatchesKey("0018,0081") && field.Value != 10.0 {
			t.Errorf("representative value = %v, want first series value 10", field.Value)
		}
	}
}

func TestAddFieldsDeduplicatesAndClassifies(t *testing.T) {
	lookup := func(key string) (schema.FieldDefinition, bool) {
		if key == "FlipAngle" {
			return schema.FieldDefinition{Tag: "0018,1314", Name: "FlipAngle", Keyword: "FlipAngle", VR: "DS"}, true
		}
		return schema.FieldDefinition{}, false
	}

	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	ws = ws.AddFields(id, []string{"FlipAngle", "repetitiontime", "MySiteField", "FlipAngle"}, lookup)

	acq := ws.Acquisitions[0]
	if len(acq.Fields) != 4 {
		t.Fatalf("field count = %d, want 4 (two new)", len(acq.Fields))
	}

	flip := acq.Fields[2]
	if flip.Tag != "0018,1314" || flip.DataType != schema.DataTypeNumber || flip.FieldType != schema.FieldTypeStandard {
		t.Errorf("dictionary field misclassified: %+v", flip)
	}
	if flip.Rule.Type != schema.RuleTolerance {
		t.Errorf("FlipAngle rule = %q, want suggested tolerance", flip.Rule.Type)
	}

	custom := acq.Fields[3]
	if custom.FieldType != schema.FieldTypeCustom || custom.Tag != "" {
		t.Errorf("custom field misclassified: %+v", custom)
	}
}

func TestOperationsDoNotMutateReceiver(t *testing.T) {
	ws := New().Add(testAcquisition())
	id := ws.Acquisitions[0].ID
	before := ws.clone()

	value := any(1.0)
	_ = ws.UpdateField(id, "0018,0080", FieldUpdate{Value: &value})
	_ = ws.DeleteField(id, "0018,0080")
	_ = ws.ConvertFieldLevel(id, "0018,0081", LevelSeries, ModeSeparateSeries)
	_ = ws.AddSeries(id)

	if !reflect.DeepEqual(ws, before) {
		t.Error("operations mutated the receiver")
	}
}
