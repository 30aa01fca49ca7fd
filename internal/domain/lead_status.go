package domain

// LeadStatus 客资状态领域模型（对应 lead_statuses 表）
// 状态按 tenant 配置；新建 lead 未指定状态时落到 is_default 状态。
// 注意：表单提交的 field_status 是展示名（status_name），提交时按
// tenant 内展示名等值查找解析为 status_id（沿用原始行为，不做 id 化改造）。
type LeadStatus struct {
	StatusID   string `json:"status_id" db:"status_id"`
	TenantID   string `json:"tenant_id" db:"tenant_id"`
	StatusName string `json:"status_name" db:"status_name"`
	SortOrder  int    `json:"sort_order" db:"sort_order"`
	IsDefault  bool   `json:"is_default" db:"is_default"`
}
