package repository

import (
	"context"

	"studio-data/internal/domain"
)

// LeadStatusesRepository 客资状态Repository接口
type LeadStatusesRepository interface {
	// ListStatuses 查询tenant的全部状态（sort_order 升序）
	ListStatuses(ctx context.Context, tenantID string) ([]domain.LeadStatus, error)

	// GetDefaultStatus 获取默认状态（is_default；没有标记时取 sort_order 最小的）
	GetDefaultStatus(ctx context.Context, tenantID string) (*domain.LeadStatus, error)

	// GetStatusByName 按展示名（status_name）等值查找状态
	// 注意：表单提交的 field_status 是展示名，这里沿用原始的字符串等值
	// 查找语义——改名/重名时是脆弱的，多个命中取 sort_order 最小的一个
	GetStatusByName(ctx context.Context, tenantID, statusName string) (*domain.LeadStatus, error)

	// CreateStatus 创建状态
	CreateStatus(ctx context.Context, tenantID string, status *domain.LeadStatus) (string, error)
}
