// Package seed 从 YAML 加载租户初始配置（状态和字段定义）并写入。
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

type yamlFile struct {
	Statuses    []yamlStatus     `yaml:"statuses"`
	Definitions []yamlDefinition `yaml:"field_definitions"`
}

type yamlStatus struct {
	Name      string `yaml:"name"`
	SortOrder int    `yaml:"sort_order"`
	Default   bool   `yaml:"default"`
}

type yamlDefinition struct {
	FieldKey      string   `yaml:"field_key"`
	Label         string   `yaml:"label"`
	FieldType     string   `yaml:"field_type"`
	Required      bool     `yaml:"required"`
	VisibleInForm *bool    `yaml:"visible_in_form"` // 缺省为 true
	SortOrder     int      `yaml:"sort_order"`
	Options       []string `yaml:"options"`
}

// Plan 一次 seed 的解析结果
type Plan struct {
	Statuses    []domain.LeadStatus
	Definitions []domain.FieldDefinition
}

// LoadFile 解析 seed YAML 文件
func LoadFile(filename string) (*Plan, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Load(data)
}

// Load 解析 seed YAML 内容
func Load(data []byte) (*Plan, error) {
	var yf yamlFile
	if err := yaml.Unmarshal(data, &yf); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}

	plan := &Plan{}
	for _, s := range yf.Statuses {
		if s.Name == "" {
			return nil, fmt.Errorf("status name is required")
		}
		plan.Statuses = append(plan.Statuses, domain.LeadStatus{
			StatusName: s.Name,
			SortOrder:  s.SortOrder,
			IsDefault:  s.Default,
		})
	}
	for _, d := range yf.Definitions {
		if d.FieldKey == "" || d.Label == "" {
			return nil, fmt.Errorf("field_key and label are required")
		}
		fieldType := d.FieldType
		if fieldType == "" {
			fieldType = domain.FieldTypeText
		}
		visible := true
		if d.VisibleInForm != nil {
			visible = *d.VisibleInForm
		}
		plan.Definitions = append(plan.Definitions, domain.FieldDefinition{
			EntityKind:      domain.EntityKindLead,
			FieldKey:        d.FieldKey,
			Label:           d.Label,
			FieldType:       fieldType,
			IsRequired:      d.Required,
			IsVisibleInForm: visible,
			SortOrder:       d.SortOrder,
			Options:         domain.FieldOptions{Options: d.Options},
		})
	}
	return plan, nil
}

// Apply 把 plan 写入一个租户，返回写入的状态数和定义数。
// 已存在同名 field_key 的定义跳过并继续；其他写失败直接返回。
func Apply(ctx context.Context, plan *Plan,
	statusesRepo repository.LeadStatusesRepository,
	defsRepo repository.FieldDefinitionsRepository,
	tenantID string,
) (int, int, error) {
	statuses := 0
	for _, s := range plan.Statuses {
		st := s
		st.TenantID = tenantID
		if _, err := statusesRepo.CreateStatus(ctx, tenantID, &st); err != nil {
			return statuses, 0, fmt.Errorf("create status %q: %w", s.StatusName, err)
		}
		statuses++
	}

	defs := 0
	for _, d := range plan.Definitions {
		def := d
		def.TenantID = tenantID
		if _, err := defsRepo.CreateDefinition(ctx, tenantID, &def); err != nil {
			if errors.Is(err, repository.ErrDuplicateFieldKey) {
				continue
			}
			return statuses, defs, fmt.Errorf("create definition %q: %w", d.FieldKey, err)
		}
		defs++
	}
	return statuses, defs, nil
}
