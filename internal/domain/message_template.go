package domain

import "time"

// MessageChannel 消息渠道
type MessageChannel string

const (
	ChannelEmail    MessageChannel = "email"
	ChannelWhatsApp MessageChannel = "whatsapp"
	ChannelSMS      MessageChannel = "sms"
)

// IsValid 判断渠道是否受支持
func (c MessageChannel) IsValid() bool {
	return c == ChannelEmail || c == ChannelWhatsApp || c == ChannelSMS
}

// MessageTemplate 消息模板领域模型（对应 message_templates 表）
// Body/Subject 中的 {{key}} 占位符在预览时用 lead 的字段值替换：
// 动态 FieldValue 优先，固定列兜底（与表单展示的取值优先级一致）。
type MessageTemplate struct {
	TemplateID string         `json:"template_id" db:"template_id"`
	TenantID   string         `json:"tenant_id" db:"tenant_id"`
	Channel    MessageChannel `json:"channel" db:"channel"`
	Name       string         `json:"name" db:"name"`
	Subject    string         `json:"subject" db:"subject"` // 仅 email 使用
	Body       string         `json:"body" db:"body"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}
