package repository

import (
	"context"

	"studio-data/internal/domain"
)

// LeadsRepository 客资Repository接口
type LeadsRepository interface {
	// GetLead 根据lead_id获取lead
	GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error)

	// ListLeads 查询leads列表（支持分页、过滤、搜索）
	ListLeads(ctx context.Context, tenantID string, filter LeadsFilter, page, size int) ([]*domain.Lead, int, error)

	// CreateLead 创建lead（返回新lead_id）
	CreateLead(ctx context.Context, tenantID string, lead *domain.Lead) (string, error)

	// UpdateLead 更新lead固定列
	// 注意：只更新 update 中非 nil 的列（提交侧保证 name 不会被置空）
	UpdateLead(ctx context.Context, tenantID, leadID string, update LeadUpdate) error

	// DeleteLead 删除lead（field_values 由调用方级联删除）
	DeleteLead(ctx context.Context, tenantID, leadID string) error
}

// LeadsFilter 客资查询过滤器
type LeadsFilter struct {
	Search   string // 可选，按 name/email 模糊匹配
	StatusID string // 可选，按状态过滤
}

// LeadUpdate 固定列的部分更新（nil = 不更新该列）
type LeadUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Notes    *string
	StatusID *string
}

// IsEmpty 判断是否没有任何列要更新
func (u LeadUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Notes == nil && u.StatusID == nil
}
