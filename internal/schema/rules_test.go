package schema

import (
	"reflect"
	"testing"
)

func TestInferRuleToleranceFields(t *testing.T) {
	rule := InferRule("RepetitionTime", DataTypeNumber, 2000.0)
	if rule.Type != RuleTolerance {
		t.Fatalf("rule type = %q, want tolerance", rule.Type)
	}
	if rule.Tolerance == nil || *rule.Tolerance != 0.1 {
		t.Errorf("tolerance = %v, want 0.1", rule.Tolerance)
	}
}

func TestInferRuleMultiValuedFields(t *testing.T) {
	rule := InferRule("ScanOptions", DataTypeString, `FS\SAT1`)
	if rule.Type != RuleContainsAny {
		t.Fatalf("rule type = %q, want contains_any", rule.Type)
	}
	want := []any{"FS", "SAT1"}
	if !reflect.DeepEqual(rule.ContainsAny, want) {
		t.Errorf("contains_any = %v, want %v", rule.ContainsAny, want)
	}
}

func TestInferRuleDefaultsToExact(t *testing.T) {
	rule := InferRule("PatientPosition", DataTypeString, "HFS")
	if rule.Type != RuleExact {
		t.Errorf("rule type = %q, want exact", rule.Type)
	}
}

func TestSplitMultiValue(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  []any
	}{
		{"backslash string", `ORIGINAL\PRIMARY\M`, []any{"ORIGINAL", "PRIMARY", "M"}},
		{"existing list", []any{"A", "B"}, []any{"A", "B"}},
		{"scalar", 42.0, []any{42.0}},
		{"nil", nil, []any{}},
		{"blank segments", `FS\\ `, []any{"FS"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SplitMultiValue(tc.value); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("SplitMultiValue(%v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}

func TestRuleComplete(t *testing.T) {
	tolerance := 0.5
	min, max := 1.0, 2.0
	cases := []struct {
		name string
		rule ValidationRule
		want bool
	}{
		{"exact always complete", ExactRule(), true},
		{"tolerance with value", ValidationRule{Type: RuleTolerance, Tolerance: &tolerance}, true},
		{"tolerance missing", ValidationRule{Type: RuleTolerance}, false},
		{"range complete", ValidationRule{Type: RuleRange, Min: &min, Max: &max}, true},
		{"range half", ValidationRule{Type: RuleRange, Min: &min}, false},
		{"contains empty", ValidationRule{Type: RuleContains, Contains: "  "}, false},
		{"contains set", ValidationRule{Type: RuleContains, Contains: "FLAIR"}, true},
		{"contains_any empty", ValidationRule{Type: RuleContainsAny}, false},
		{"contains_all set", ValidationRule{Type: RuleContainsAll, ContainsAll: []any{"M"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rule.Complete(); got != tc.want {
				t.Errorf("Complete() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRuleCloneIsDeep(t *testing.T) {
	tolerance := 0.1
	rule := ValidationRule{Type: RuleTolerance, Tolerance: &tolerance, ContainsAny: []any{"A"}}
	clone := rule.Clone()
	*clone.Tolerance = 9
	clone.ContainsAny[0] = "B"
	if *rule.Tolerance != 0.1 || rule.ContainsAny[0] != "A" {
		t.Error("clone shares storage with original")
	}
}
