package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dicomschema/internal/engine"
	"dicomschema/internal/schema"
)

// deriveSchemaName turns a protocol name like "t1_mprage_sag_p2" into a
// presentable schema title.
func deriveSchemaName(protocolName string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range protocolName {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Schema"
	}
	return cases.Title(language.Und).String(title)
}

// describeRule renders a validation rule for table output.
func describeRule(rule schema.ValidationRule) string {
	switch rule.Type {
	case schema.RuleTolerance:
		if rule.Tolerance != nil {
			return fmt.Sprintf("tolerance ±%s", formatFloat(*rule.Tolerance))
		}
		return "tolerance"
	case schema.RuleRange:
		if rule.Min != nil && rule.Max != nil {
			return fmt.Sprintf("range [%s, %s]", formatFloat(*rule.Min), formatFloat(*rule.Max))
		}
		return "range"
	case schema.RuleContains:
		if rule.Contains != "" {
			return fmt.Sprintf("contains %q", rule.Contains)
		}
		return "contains"
	case schema.RuleContainsAny:
		return "contains any " + formatValue(rule.ContainsAny)
	case schema.RuleContainsAll:
		return "contains all " + formatValue(rule.ContainsAll)
	default:
		return "exact"
	}
}

// formatValue renders a field value compactly for table cells.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatFloat(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// progressPrinter writes engine progress lines when the writer is a
// terminal. Non-interactive runs stay quiet; the structured log still
// carries progress.
func progressPrinter(w io.Writer) func(engine.Progress) {
	if !shouldColorize(w) {
		return nil
	}
	return func(p engine.Progress) {
		if p.Operation == "" {
			fmt.Fprintf(w, "\r%3.0f%%", p.Percentage)
			return
		}
		fmt.Fprintf(w, "\r%3.0f%% %-60s", p.Percentage, p.Operation)
	}
}

// pipelineProgressPrinter adapts the same terminal gating to pipeline
// percent/message callbacks.
func pipelineProgressPrinter(w io.Writer) func(float64, string) {
	if !shouldColorize(w) {
		return nil
	}
	return func(percent float64, message string) {
		fmt.Fprintf(w, "\r%3.0f%% %-60s", percent, message)
	}
}

func finishProgress(w io.Writer) {
	if shouldColorize(w) {
		fmt.Fprint(w, "\r"+strings.Repeat(" ", 66)+"\r")
	}
}
