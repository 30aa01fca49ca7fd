package domain

// FieldValue 动态字段值领域模型（对应 field_values 表）
// 组合主键 (entity_id, field_key)。所有值统一存为 nullable string，
// number/checkbox/date 在写入时序列化、读取时解析。
type FieldValue struct {
	TenantID   string  `json:"tenant_id" db:"tenant_id"`
	EntityKind string  `json:"entity_kind" db:"entity_kind"`
	EntityID   string  `json:"entity_id" db:"entity_id"`
	FieldKey   string  `json:"field_key" db:"field_key"`
	Value      *string `json:"value" db:"value"`
}
