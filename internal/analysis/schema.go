package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

const (
	FieldName                    = "name"
	FieldCoreSkillsSummary       = "core_skills_summary"
	FieldMatchScorePercent       = "match_score_percent"
	FieldMissingSkills           = "missing_skills"
	FieldRecommendedImprovements = "recommended_improvements"

	// MaxListItems bounds missing_skills and recommended_improvements.
	MaxListItems = 3
	MinScore     = 0
	MaxScore     = 100
)

var fields = []string{
	FieldName,
	FieldCoreSkillsSummary,
	FieldMatchScorePercent,
	FieldMissingSkills,
	FieldRecommendedImprovements,
}

// Fields returns the required result fields in prompt order.
func Fields() []string {
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// ValidationError reports a result that does not match the schema.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid analysis result")
	if e.Field != "" {
		fmt.Fprintf(&b, ": field %q", e.Field)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses raw model output into a Result. Missing, null or wrongly
// typed fields are reported as *ValidationError.
func Decode(raw string) (*Result, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, &ValidationError{Reason: "empty payload"}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &ValidationError{Reason: "payload is not a JSON object", Err: err}
	}

	for _, field := range fields {
		if v, ok := data[field]; !ok || v == nil {
			return nil, &ValidationError{Field: field, Reason: "required field is missing"}
		}
	}

	// encoding/json yields float64 and mapstructure would truncate it silently.
	if score, ok := data[FieldMatchScorePercent].(float64); ok && score != math.Trunc(score) {
		return nil, &ValidationError{Field: FieldMatchScorePercent, Reason: "must be an integer"}
	}

	var result Result
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &result,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("create result decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, &ValidationError{Reason: "wrong field type", Err: err}
	}

	Normalize(&result)
	if err := Validate(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// Normalize trims text, drops blank list entries and caps both lists at
// MaxListItems.
func Normalize(r *Result) {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.CoreSkillsSummary = strings.TrimSpace(r.CoreSkillsSummary)
	r.MissingSkills = normalizeList(r.MissingSkills)
	r.RecommendedImprovements = normalizeList(r.RecommendedImprovements)
}

func normalizeList(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, 0, MaxListItems)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == MaxListItems {
			break
		}
	}
	return out
}

// Validate checks a decoded result against the schema constraints.
func Validate(r *Result) error {
	if r == nil {
		return &ValidationError{Reason: "result is nil"}
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: describe(fe)}
	}

	return &ValidationError{Err: err}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing"
	case "gte", "lte":
		return fmt.Sprintf("must be between %d and %d, got %v", MinScore, MaxScore, fe.Value())
	case "max":
		return fmt.Sprintf("must contain at most %s items", fe.Param())
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
