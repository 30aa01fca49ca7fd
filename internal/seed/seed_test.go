package seed

import (
	"context"
	"errors"
	"testing"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

const sampleYAML = `
statuses:
  - name: New
    default: true
  - name: Booked
    sort_order: 1

field_definitions:
  - field_key: name
    label: Name
    required: true
  - field_key: status
    label: Status
    field_type: select
    options: [New, Booked]
  - field_key: internal_score
    label: Score
    field_type: number
    visible_in_form: false
`

func TestLoad(t *testing.T) {
	plan, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(plan.Statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(plan.Statuses))
	}
	if !plan.Statuses[0].IsDefault || plan.Statuses[0].StatusName != "New" {
		t.Fatalf("unexpected first status: %+v", plan.Statuses[0])
	}

	if len(plan.Definitions) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(plan.Definitions))
	}
	name := plan.Definitions[0]
	if name.FieldType != domain.FieldTypeText {
		t.Fatalf("field_type should default to text, got %s", name.FieldType)
	}
	if !name.IsVisibleInForm {
		t.Fatal("visible_in_form should default to true")
	}
	score := plan.Definitions[2]
	if score.IsVisibleInForm {
		t.Fatal("explicit visible_in_form: false must be honored")
	}
}

func TestLoadRejectsMissingKeys(t *testing.T) {
	_, err := Load([]byte("field_definitions:\n  - label: No key\n"))
	if err == nil {
		t.Fatal("definition without field_key should fail")
	}
}

func TestApply(t *testing.T) {
	plan, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	statusesRepo := repository.NewMemoryLeadStatusesRepository()
	defsRepo := repository.NewMemoryFieldDefinitionsRepository()

	statuses, defs, err := Apply(context.Background(), plan, statusesRepo, defsRepo, "tenant-1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if statuses != 2 || defs != 3 {
		t.Fatalf("counts: %d statuses, %d defs", statuses, defs)
	}

	// 重复 seed 跳过已存在的定义
	_, defs, err = Apply(context.Background(), plan, statusesRepo, defsRepo, "tenant-1")
	if err != nil {
		t.Fatalf("re-Apply: %v", err)
	}
	if defs != 0 {
		t.Fatalf("duplicate definitions should be skipped, got %d", defs)
	}
}

type brokenDefsRepo struct {
	repository.FieldDefinitionsRepository
}

func (r *brokenDefsRepo) CreateDefinition(context.Context, string, *domain.FieldDefinition) (string, error) {
	return "", errors.New("connection refused")
}

func TestApplyReturnsNonDuplicateErrors(t *testing.T) {
	plan, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	statusesRepo := repository.NewMemoryLeadStatusesRepository()
	defsRepo := &brokenDefsRepo{repository.NewMemoryFieldDefinitionsRepository()}

	// 只有重复 field_key 会被跳过；其他写失败必须上报
	_, defs, err := Apply(context.Background(), plan, statusesRepo, defsRepo, "tenant-1")
	if err == nil {
		t.Fatal("expected error from failing repository")
	}
	if defs != 0 {
		t.Fatalf("failed writes must not count as applied, got %d", defs)
	}
}
