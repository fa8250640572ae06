package workspace

import (
	"testing"

	"dicomschema/internal/schema"
)

func seriesAcquisition() schema.Acquisition {
	return schema.Acquisition{
		ID:           "acq-1",
		ProtocolName: "gre_field_mapping",
		Series: []schema.Series{
			{Name: "Series 1", Fields: []schema.SeriesField{
				{Name: "EchoTime", Value: 4.92, DataType: schema.DataTypeNumber, Rule: schema.ToleranceRule(0.1)},
				{Name: "ImageType", Value: []any{"ORIGINAL", "PRIMARY", "M"}, DataType: schema.DataTypeListString, Rule: schema.ExactRule()},
			}},
			{Name: "Series 2", Fields: []schema.SeriesField{
				{Name: "EchoTime", Value: 7.38, DataType: schema.DataTypeNumber, Rule: schema.ToleranceRule(0.1)},
				{Name: "ImageType", Value: []any{"ORIGINAL", "PRIMARY", "M"}, DataType: schema.DataTypeListString, Rule: schema.ExactRule()},
			}},
		},
	}
}

func TestAddSeriesSeedsFromNearestSeries(t *testing.T) {
	ws := New().Add(seriesAcquisition())
	ws = ws.AddSeries("acq-1")

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 3 {
		t.Fatalf("series count = %d, want 3", len(acq.Series))
	}
	added := acq.Series[2]
	if added.Name != "Series 3" {
		t.Errorf("name = %q, want Series 3", added.Name)
	}
	if len(added.Fields) != 2 {
		t.Fatalf("seeded field count = %d, want 2", len(added.Fields))
	}

	// ImageType agrees across series, so its value is copied verbatim.
	for _, field := range added.Fields {
		switch field.Name {
		case "ImageType":
			list, ok := field.Value.([]any)
			if !ok || len(list) != 3 || list[0] != "ORIGINAL" {
				t.Errorf("ImageType seed = %v, want verbatim copy", field.Value)
			}
		case "EchoTime":
			// EchoTime disagrees between series, so the seed falls back to
			// the datatype default rather than picking a side.
			if field.Value != schema.DefaultValueFor(schema.DataTypeNumber) {
				t.Errorf("EchoTime seed = %v, want datatype default", field.Value)
			}
		default:
			t.Errorf("unexpected seeded field %q", field.Name)
		}
	}
}

func TestAddSeriesWithNoExistingSeries(t *testing.T) {
	ws := New().Add(schema.Acquisition{ID: "acq-1"})
	ws = ws.AddSeries("acq-1")

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 1 || acq.Series[0].Name != "Series 1" || len(acq.Series[0].Fields) != 0 {
		t.Fatalf("unexpected series: %+v", acq.Series)
	}
}

func TestUpdateSeriesExistingField(t *testing.T) {
	ws := New().Add(seriesAcquisition())
	value := any(9.84)
	ws = ws.UpdateSeries("acq-1", 1, "EchoTime", SeriesFieldUpdate{Value: &value})

	acq := ws.Acquisitions[0]
	if acq.Series[1].Fields[0].Value != 9.84 {
		t.Errorf("value = %v, want 9.84", acq.Series[1].Fields[0].Value)
	}
	if acq.Series[0].Fields[0].Value != 4.92 {
		t.Error("sibling series must not change")
	}
}

func TestUpdateSeriesCreatesMissingSeries(t *testing.T) {
	ws := New().Add(schema.Acquisition{ID: "acq-1"})
	value := any("ND")
	ws = ws.UpdateSeries("acq-1", 2, "ImageType", SeriesFieldUpdate{Value: &value})

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 3 {
		t.Fatalf("series count = %d, want 3 (indices 0..2 backfilled)", len(acq.Series))
	}
	for i, want := range []string{"Series 1", "Series 2", "Series 3"} {
		if acq.Series[i].Name != want {
			t.Errorf("series %d name = %q, want %q", i, acq.Series[i].Name, want)
		}
	}
	if len(acq.Series[0].Fields) != 0 || len(acq.Series[1].Fields) != 0 {
		t.Error("backfilled series must start empty")
	}
	field := acq.Series[2].Fields[0]
	if field.Value != "ND" || field.DataType != schema.DataTypeString {
		t.Errorf("created field = %+v", field)
	}
}

func TestUpdateSeriesNegativeIndexIsNoop(t *testing.T) {
	ws := New().Add(seriesAcquisition())
	value := any(1.0)
	next := ws.UpdateSeries("acq-1", -1, "EchoTime", SeriesFieldUpdate{Value: &value})
	if len(next.Acquisitions[0].Series) != 2 {
		t.Error("negative index must not change the workspace")
	}
}

func TestDeleteSeries(t *testing.T) {
	ws := New().Add(seriesAcquisition())
	ws = ws.DeleteSeries("acq-1", 0)

	acq := ws.Acquisitions[0]
	if len(acq.Series) != 1 {
		t.Fatalf("series count = %d, want 1", len(acq.Series))
	}
	if acq.Series[0].Fields[0].Value != 7.38 {
		t.Error("wrong series removed")
	}
}

func TestRenameSeries(t *testing.T) {
	ws := New().Add(seriesAcquisition())
	ws = ws.RenameSeries("acq-1", 0, "Magnitude")
	ws = ws.RenameSeries("acq-1", 1, "   ")

	acq := ws.Acquisitions[0]
	if acq.Series[0].Name != "Magnitude" {
		t.Errorf("name = %q", acq.Series[0].Name)
	}
	if acq.Series[1].Name != "Series 2" {
		t.Error("blank rename must be ignored")
	}
}

func TestFunctionLifecycle(t *testing.T) {
	ws := New().Add(schema.Acquisition{ID: "acq-1"})

	ws = ws.AddFunction("acq-1", schema.ValidationFunction{
		Name:           "Uniform slice timing",
		Implementation: "def validate(session): ...",
		Fields:         []string{"SliceTiming"},
	})
	acq := ws.Acquisitions[0]
	if len(acq.Functions) != 1 {
		t.Fatalf("function count = %d", len(acq.Functions))
	}
	if acq.Functions[0].ID == "" {
		t.Error("added function must receive an id")
	}
	originalID := acq.Functions[0].ID

	ws = ws.UpdateFunction("acq-1", 0, schema.ValidationFunction{
		Name:           "Uniform slice timing v2",
		Implementation: "def validate(session): pass",
	})
	acq = ws.Acquisitions[0]
	if acq.Functions[0].Name != "Uniform slice timing v2" {
		t.Errorf("name = %q", acq.Functions[0].Name)
	}
	if acq.Functions[0].ID != originalID {
		t.Error("update must preserve the function id")
	}

	ws = ws.DeleteFunction("acq-1", 0)
	if len(ws.Acquisitions[0].Functions) != 0 {
		t.Error("function not deleted")
	}

	ws = ws.DeleteFunction("acq-1", 5)
	if len(ws.Acquisitions[0].Functions) != 0 {
		t.Error("out of range delete must be a no-op")
	}
}
