package schema

import (
	"strings"
	"testing"

	"studio-data/internal/domain"
)

func def(key, fieldType string, required bool) domain.FieldDefinition {
	return domain.FieldDefinition{
		FieldKey:        key,
		Label:           key,
		FieldType:       fieldType,
		IsRequired:      required,
		IsVisibleInForm: true,
	}
}

func TestValidateRequired(t *testing.T) {
	s := Synthesize([]domain.FieldDefinition{def("name", domain.FieldTypeText, true)})

	errs := s.Validate(map[string]any{"field_name": ""})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].FieldKey != "name" {
		t.Fatalf("unexpected field key: %s", errs[0].FieldKey)
	}
	if !strings.Contains(errs[0].Message, "required") {
		t.Fatalf("unexpected message: %s", errs[0].Message)
	}

	// 只有空白也算空
	errs = s.Validate(map[string]any{"field_name": "   "})
	if len(errs) != 1 {
		t.Fatalf("whitespace-only should fail required, got %d errors", len(errs))
	}

	errs = s.Validate(map[string]any{"field_name": "Alice"})
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidateEmailFormat(t *testing.T) {
	s := Synthesize([]domain.FieldDefinition{def("email", domain.FieldTypeEmail, false)})

	// 空值在非必填时跳过格式校验
	if errs := s.Validate(map[string]any{"field_email": ""}); len(errs) != 0 {
		t.Fatalf("empty optional email should pass, got %v", errs)
	}
	if errs := s.Validate(map[string]any{"field_email": "not-an-email"}); len(errs) != 1 {
		t.Fatalf("malformed email should fail, got %v", errs)
	}
	if errs := s.Validate(map[string]any{"field_email": "a@b.co"}); len(errs) != 0 {
		t.Fatalf("valid email should pass, got %v", errs)
	}
}

func TestValidateNumber(t *testing.T) {
	s := Synthesize([]domain.FieldDefinition{def("budget", domain.FieldTypeNumber, false)})

	if errs := s.Validate(map[string]any{"field_budget": "abc"}); len(errs) != 1 {
		t.Fatalf("non-numeric should fail, got %v", errs)
	}
	if errs := s.Validate(map[string]any{"field_budget": "1200.50"}); len(errs) != 0 {
		t.Fatalf("numeric string should pass, got %v", errs)
	}
	if errs := s.Validate(map[string]any{"field_budget": 1200.5}); len(errs) != 0 {
		t.Fatalf("float value should pass, got %v", errs)
	}
}

func TestUnknownTypeFallsBackToText(t *testing.T) {
	h := HandlerFor("rich_text_v2")
	if h.Kind != domain.FieldTypeText {
		t.Fatalf("unknown type should fall back to text, got %s", h.Kind)
	}

	// 未知类型的必填校验仍然生效
	s := Synthesize([]domain.FieldDefinition{def("bio", "rich_text_v2", true)})
	if errs := s.Validate(map[string]any{"field_bio": ""}); len(errs) != 1 {
		t.Fatalf("required check should apply to unknown type, got %v", errs)
	}
}

func TestValidateIgnoresUndefinedInputs(t *testing.T) {
	s := Synthesize([]domain.FieldDefinition{def("name", domain.FieldTypeText, true)})
	errs := s.Validate(map[string]any{
		"field_name":    "Alice",
		"field_ghost":   "no definition for this",
		"unrelated_key": 42,
	})
	if len(errs) != 0 {
		t.Fatalf("inputs without definitions should be ignored, got %v", errs)
	}
}

func TestToNullableString(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want *string
	}{
		{"nil", nil, nil},
		{"empty string", "", nil},
		{"whitespace", "  ", nil},
		{"string", " Alice ", ptr("Alice")},
		{"true", true, ptr("true")},
		{"false", false, ptr("false")},
		{"number", 42.0, ptr("42")},
		{"array", []any{"b", "a"}, ptr("b,a")},
		{"empty array", []any{}, nil},
	}
	for _, c := range cases {
		got := ToNullableString(c.in)
		if (got == nil) != (c.want == nil) {
			t.Fatalf("%s: nil mismatch: got %v want %v", c.name, got, c.want)
		}
		if got != nil && *got != *c.want {
			t.Fatalf("%s: got %q want %q", c.name, *got, *c.want)
		}
	}
}

func ptr(s string) *string { return &s }
