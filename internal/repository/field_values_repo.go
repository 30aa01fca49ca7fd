package repository

import (
	"context"
)

// FieldValuesRepository 动态字段值Repository接口
// 值统一为 nullable string（序列化规则见 schema.ToNullableString）
type FieldValuesRepository interface {
	// GetValues 获取一个实体的全部字段值（fieldKey -> value）
	GetValues(ctx context.Context, tenantID, entityKind, entityID string) (map[string]*string, error)

	// UpsertValues 批量 upsert，键为 (entity_id, field_key)
	// 注意：
	//   - 提交 diff 中出现的 key 才会写入；value 为 nil 表示清空该字段
	//   - 不删除 map 外的既有行（字段值只随实体级联删除）
	UpsertValues(ctx context.Context, tenantID, entityKind, entityID string, values map[string]*string) error

	// DeleteValuesForEntity 级联删除一个实体的全部字段值（删除实体时调用）
	DeleteValuesForEntity(ctx context.Context, tenantID, entityKind, entityID string) error
}
