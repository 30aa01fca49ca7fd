// Package schema 在运行时根据字段定义合成校验 schema。
// 定义列表变化（如租户新增自定义字段）后必须重新合成；合成是确定性的。
package schema

import "studio-data/internal/domain"

// FieldError 单个字段的校验失败
type FieldError struct {
	Name     string `json:"name"` // 表单输入名 field_<key>
	FieldKey string `json:"field_key"`
	Message  string `json:"message"`
}

// Schema 一组字段定义合成出的校验 schema
type Schema struct {
	defs   []domain.FieldDefinition
	byName map[string]domain.FieldDefinition
}

// Synthesize 从有序定义列表合成 schema
func Synthesize(defs []domain.FieldDefinition) *Schema {
	byName := make(map[string]domain.FieldDefinition, len(defs))
	for _, d := range defs {
		byName[d.FormName()] = d
	}
	return &Schema{defs: defs, byName: byName}
}

// Definitions 返回合成时的定义列表（原顺序）
func (s *Schema) Definitions() []domain.FieldDefinition {
	return s.defs
}

// Definition 按表单输入名（field_<key>）查找定义
func (s *Schema) Definition(name string) (domain.FieldDefinition, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// Validate 校验整个表单值集合，返回所有失败项（空切片 = 通过）
func (s *Schema) Validate(values map[string]any) []FieldError {
	var errs []FieldError
	for _, d := range s.defs {
		if fe := s.ValidateField(d.FormName(), values[d.FormName()]); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

// ValidateField 校验单个输入；schema 中不存在的输入名直接通过
func (s *Schema) ValidateField(name string, value any) *FieldError {
	d, ok := s.byName[name]
	if !ok {
		return nil
	}
	return HandlerFor(d.FieldType).Validate(d, value)
}
