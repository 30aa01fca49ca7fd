package domain

import "time"

// Lead 客资领域模型（对应 leads 表）
// 固定列之外的属性通过 FieldValue 扩展。固定列同时以 field_name/field_email
// 等伪动态字段暴露给表单，让同一套渲染/校验逻辑处理两类字段。
type Lead struct {
	LeadID    string    `json:"lead_id" db:"lead_id"`
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email" db:"email"`
	Phone     *string   `json:"phone" db:"phone"`
	Notes     *string   `json:"notes" db:"notes"`
	StatusID  *string   `json:"status_id" db:"status_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CoreFieldKeys 与固定列对应的 field_key 集合。
// 当动态 FieldDefinition 与固定列同名时，动态值优先用于展示，
// 固定列在没有动态值时兜底（见 CoreFallback）。
var CoreFieldKeys = map[string]bool{
	"name":   true,
	"email":  true,
	"phone":  true,
	"notes":  true,
	"status": true,
}

// CoreFallback 返回 field_key 对应的固定列值（无动态值时的展示兜底）
// status 列存的是外键，展示名由调用方通过 LeadStatus 解析。
func (l *Lead) CoreFallback(fieldKey string) string {
	switch fieldKey {
	case "name":
		return l.Name
	case "email":
		return strOrEmpty(l.Email)
	case "phone":
		return strOrEmpty(l.Phone)
	case "notes":
		return strOrEmpty(l.Notes)
	}
	return ""
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
