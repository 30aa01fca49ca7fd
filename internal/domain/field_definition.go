package domain

// FieldDefinition 动态字段定义领域模型（对应 field_definitions 表）
// 每个租户可以为一种业务对象（entity_kind，如 "lead"）配置自己的字段集合。
// 删除/隐藏定义不会删除已存储的 FieldValue。
type FieldDefinition struct {
	ID              string       `json:"id" db:"id"`
	TenantID        string       `json:"tenant_id" db:"tenant_id"`
	EntityKind      string       `json:"entity_kind" db:"entity_kind"`
	FieldKey        string       `json:"field_key" db:"field_key"` // snake_case，tenant+entity_kind 内唯一
	Label           string       `json:"label" db:"label"`
	FieldType       string       `json:"field_type" db:"field_type"`
	IsRequired      bool         `json:"is_required" db:"is_required"`
	IsVisibleInForm bool         `json:"is_visible_in_form" db:"is_visible_in_form"`
	SortOrder       int          `json:"sort_order" db:"sort_order"`
	Options         FieldOptions `json:"options" db:"options"` // 仅 select 使用
}

// FieldOptions select 类型的候选项（存为 JSONB）
type FieldOptions struct {
	Options []string `json:"options,omitempty"`
}

// 字段类型常量（开放集合：未知类型按 FieldTypeText 处理）
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeEmail    = "email"
	FieldTypePhone    = "phone"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeSelect   = "select"
	FieldTypeCheckbox = "checkbox"
)

// EntityKindLead 目前唯一内置的业务对象类型
const EntityKindLead = "lead"

// FormFieldPrefix 表单输入命名空间前缀：field_<field_key>
const FormFieldPrefix = "field_"

// FormName 返回该定义在表单中的输入名（field_<key>）
func (d *FieldDefinition) FormName() string {
	return FormFieldPrefix + d.FieldKey
}
