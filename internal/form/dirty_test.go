package form

import (
	"testing"

	"studio-data/internal/domain"
)

func TestIsDirtyNormalizesBeforeCompare(t *testing.T) {
	cases := []struct {
		name      string
		current   any
		original  any
		fieldType string
		dirty     bool
	}{
		{"nil vs empty string", nil, "", domain.FieldTypeText, false},
		{"number vs numeric string", 3.0, "3", domain.FieldTypeNumber, false},
		{"trailing zeros", "3.50", "3.5", domain.FieldTypeNumber, false},
		{"multiselect order", []any{"a", "b"}, []any{"b", "a"}, domain.FieldTypeSelect, false},
		{"checkbox false vs nil", false, nil, domain.FieldTypeCheckbox, false},
		{"changed text", "Alice", "Bob", domain.FieldTypeText, true},
		{"checkbox toggled", true, false, domain.FieldTypeCheckbox, true},
		{"cleared value", "", "something", domain.FieldTypeText, true},
	}
	for _, c := range cases {
		if got := IsDirty(c.current, c.original, c.fieldType); got != c.dirty {
			t.Fatalf("%s: IsDirty = %v, want %v", c.name, got, c.dirty)
		}
	}
}

func session(defs []domain.FieldDefinition, values, snapshot map[string]any) *domain.FormSession {
	return &domain.FormSession{
		Definitions: defs,
		Values:      values,
		Snapshot:    snapshot,
	}
}

func TestAnyDirtyCleanAfterLoad(t *testing.T) {
	defs := []domain.FieldDefinition{
		{FieldKey: "name", FieldType: domain.FieldTypeText},
		{FieldKey: "budget", FieldType: domain.FieldTypeNumber},
	}
	values := map[string]any{"field_name": "Alice", "field_budget": nil}
	s := session(defs, values, map[string]any{"field_name": "Alice"})
	if AnyDirty(s) {
		t.Fatal("session should be clean right after load")
	}
}

func TestAnyDirtySingleFieldSuffices(t *testing.T) {
	defs := []domain.FieldDefinition{
		{FieldKey: "name", FieldType: domain.FieldTypeText},
		{FieldKey: "email", FieldType: domain.FieldTypeEmail},
	}
	s := session(defs,
		map[string]any{"field_name": "Alice", "field_email": "a@b.co"},
		map[string]any{"field_name": "Alice", "field_email": ""},
	)
	if !AnyDirty(s) {
		t.Fatal("one changed field should make the session dirty")
	}
}

func TestAnyDirtyRevertedEditIsClean(t *testing.T) {
	defs := []domain.FieldDefinition{{FieldKey: "name", FieldType: domain.FieldTypeText}}
	s := session(defs,
		map[string]any{"field_name": "Alice"},
		map[string]any{"field_name": "Alice"},
	)
	s.Touched = map[string]bool{"field_name": true}
	if AnyDirty(s) {
		t.Fatal("edit reverted to baseline should be clean")
	}
}

// 加载后才新增的字段没有快照基线：未编辑不算脏，编辑后算脏
func TestAnyDirtyMissingBaseline(t *testing.T) {
	defs := []domain.FieldDefinition{
		{FieldKey: "name", FieldType: domain.FieldTypeText},
		{FieldKey: "referral", FieldType: domain.FieldTypeText}, // 刷新后新增
	}
	s := session(defs,
		map[string]any{"field_name": "Alice", "field_referral": ""},
		map[string]any{"field_name": "Alice"},
	)
	if AnyDirty(s) {
		t.Fatal("untouched field without baseline must not be dirty")
	}

	s.Values["field_referral"] = "instagram"
	s.Touched = map[string]bool{"field_referral": true}
	if !AnyDirty(s) {
		t.Fatal("touched field without baseline should be dirty")
	}
}
