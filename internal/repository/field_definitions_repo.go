package repository

import (
	"context"
	"errors"

	"studio-data/internal/domain"
)

// ErrDuplicateFieldKey field_key 在 tenant+entity_kind 内已存在
var ErrDuplicateFieldKey = errors.New("field_key already exists")

// FieldDefinitionsRepository 动态字段定义Repository接口
// 使用强类型领域模型，不使用map[string]any
// 设计原则：从底层（数据库）向上设计，Repository层只负责数据访问
type FieldDefinitionsRepository interface {
	// ListDefinitions 查询一种业务对象的字段定义（sort_order 升序）
	// visibleOnly=true 时只返回 is_visible_in_form 的定义（create/edit 表单用；
	// 列表/详情页不过滤）
	ListDefinitions(ctx context.Context, tenantID, entityKind string, visibleOnly bool) ([]domain.FieldDefinition, error)

	// GetDefinition 根据id获取定义
	GetDefinition(ctx context.Context, tenantID, id string) (*domain.FieldDefinition, error)

	// CreateDefinition 创建定义
	// 注意：field_key 在 (tenant_id, entity_kind) 内唯一，冲突返回错误
	CreateDefinition(ctx context.Context, tenantID string, def *domain.FieldDefinition) (string, error)

	// UpdateDefinition 更新定义
	// 注意：field_key 不可修改（已存储的 FieldValue 以 field_key 为键）
	UpdateDefinition(ctx context.Context, tenantID, id string, def *domain.FieldDefinition) error

	// DeleteDefinition 删除定义
	// 注意：不级联删除 FieldValue——删除定义不影响已存储的值
	DeleteDefinition(ctx context.Context, tenantID, id string) error
}
