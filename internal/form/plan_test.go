package form

import (
	"testing"

	"studio-data/internal/domain"
)

func TestBuildPlanFiltersAndSorts(t *testing.T) {
	defs := []domain.FieldDefinition{
		{FieldKey: "notes", Label: "Notes", FieldType: domain.FieldTypeTextarea, SortOrder: 5, IsVisibleInForm: true},
		{FieldKey: "internal_score", Label: "Score", FieldType: domain.FieldTypeNumber, SortOrder: 1, IsVisibleInForm: false},
		{FieldKey: "name", Label: "Name", FieldType: domain.FieldTypeText, SortOrder: 0, IsVisibleInForm: true, IsRequired: true},
		{FieldKey: "status", Label: "Status", FieldType: domain.FieldTypeSelect, SortOrder: 3, IsVisibleInForm: true,
			Options: domain.FieldOptions{Options: []string{"New", "Booked"}}},
	}

	plan := BuildPlan(defs)
	if plan.Empty {
		t.Fatal("plan should not be empty")
	}
	if len(plan.Controls) != 3 {
		t.Fatalf("hidden fields must be filtered, got %d controls", len(plan.Controls))
	}

	got := []string{plan.Controls[0].FieldKey, plan.Controls[1].FieldKey, plan.Controls[2].FieldKey}
	want := []string{"name", "status", "notes"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sort order wrong: got %v want %v", got, want)
		}
	}

	if !plan.Controls[0].Required {
		t.Fatal("required flag should carry through")
	}
	if plan.Controls[1].Kind != "select" || len(plan.Controls[1].Options) != 2 {
		t.Fatalf("select control wrong: %+v", plan.Controls[1])
	}
	if plan.Controls[2].Kind != "textarea" || plan.Controls[2].Rows != 3 {
		t.Fatalf("textarea control wrong: %+v", plan.Controls[2])
	}
	if plan.Controls[0].Name != "field_name" {
		t.Fatalf("control name should be namespaced: %s", plan.Controls[0].Name)
	}
}

func TestBuildPlanEmpty(t *testing.T) {
	plan := BuildPlan([]domain.FieldDefinition{
		{FieldKey: "hidden", FieldType: domain.FieldTypeText, IsVisibleInForm: false},
	})
	if !plan.Empty {
		t.Fatal("plan with no visible fields should be empty")
	}
	if len(plan.Controls) != 0 {
		t.Fatalf("expected no controls, got %d", len(plan.Controls))
	}

	unknown := BuildPlan([]domain.FieldDefinition{
		{FieldKey: "custom", FieldType: "hologram", IsVisibleInForm: true},
	})
	if unknown.Controls[0].Kind != "input" {
		t.Fatalf("unknown type should render as text input, got %s", unknown.Controls[0].Kind)
	}
}
