package repository

import (
	"context"

	"studio-data/internal/domain"
)

// MessageTemplatesRepository 消息模板Repository接口
type MessageTemplatesRepository interface {
	// GetTemplate 根据template_id获取模板
	GetTemplate(ctx context.Context, tenantID, templateID string) (*domain.MessageTemplate, error)

	// ListTemplates 查询模板列表（channel 可选过滤，支持分页）
	ListTemplates(ctx context.Context, tenantID string, channel domain.MessageChannel, page, size int) ([]*domain.MessageTemplate, int, error)

	// CreateTemplate 创建模板
	CreateTemplate(ctx context.Context, tenantID string, tpl *domain.MessageTemplate) (string, error)

	// UpdateTemplate 更新模板
	UpdateTemplate(ctx context.Context, tenantID, templateID string, tpl *domain.MessageTemplate) error

	// DeleteTemplate 删除模板
	DeleteTemplate(ctx context.Context, tenantID, templateID string) error
}
