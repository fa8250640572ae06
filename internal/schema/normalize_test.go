package schema

import (
	"reflect"
	"testing"
)

func TestInferDataType(t *testing.T) {
	cases := []struct {
		name  string
		vr    string
		value any
		want  DataType
	}{
		{"numeric vr scalar", "DS", nil, DataTypeNumber},
		{"string vr scalar", "LO", nil, DataTypeString},
		{"float value", "", 3.5, DataTypeNumber},
		{"string value", "", "HFS", DataTypeString},
		{"numeric list", "", []any{1.0, 2.0}, DataTypeListNumber},
		{"string list", "", []any{"ORIGINAL", "PRIMARY"}, DataTypeListString},
		{"numeric vr list", "FD", []any{"1.0"}, DataTypeListNumber},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := InferDataType(tc.vr, tc.value); got != tc.want {
				t.Errorf("InferDataType(%q, %v) = %q, want %q", tc.vr, tc.value, got, tc.want)
			}
		})
	}
}

func TestRoundValue(t *testing.T) {
	if got := RoundValue(2.000049999); got != 2.0 {
		t.Errorf("RoundValue scalar = %v", got)
	}
	if got := RoundValue(1.23456789); got != 1.2346 {
		t.Errorf("RoundValue scalar = %v, want 1.2346", got)
	}
	got := RoundValue([]any{1.00001, "keep", 2.55555})
	want := []any{1.0, "keep", 2.5556}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RoundValue list = %v, want %v", got, want)
	}
	if got := RoundValue("text"); got != "text" {
		t.Errorf("RoundValue passthrough = %v", got)
	}
}

func TestDefaultValueFor(t *testing.T) {
	if got := DefaultValueFor(DataTypeNumber); got != float64(0) {
		t.Errorf("number default = %v", got)
	}
	if got := DefaultValueFor(DataTypeListString); !reflect.DeepEqual(got, []any{}) {
		t.Errorf("list default = %v", got)
	}
	if got := DefaultValueFor(DataTypeString); got != "" {
		t.Errorf("string default = %v", got)
	}
}

func TestNumberOf(t *testing.T) {
	if v, ok := NumberOf(3.5); !ok || v != 3.5 {
		t.Errorf("NumberOf(3.5) = %v, %v", v, ok)
	}
	if _, ok := NumberOf("3.5"); ok {
		t.Error("NumberOf should reject strings")
	}
}
