package domain

import "time"

// GuardState 未保存变更守卫状态机的状态
type GuardState string

const (
	GuardClean             GuardState = "clean"
	GuardDirty             GuardState = "dirty"
	GuardConfirmingDiscard GuardState = "confirming_discard"
)

// GuardChoice 守卫确认弹窗的用户选择
type GuardChoice string

const (
	GuardChoiceDiscard     GuardChoice = "discard"
	GuardChoiceStay        GuardChoice = "stay"
	GuardChoiceSaveAndExit GuardChoice = "save_and_exit"
)

// FormMode 表单模式
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// FormSession 一次打开的动态表单编辑会话（序列化为 JSON 存入 KV）
// Snapshot 是加载完成后立即捕获的基线（脏比较 + 放弃修改的回滚目标）。
// 不变量：Snapshot 必须在 Definitions 和初始 Values 都加载完成后捕获，
// 提前捕获会产生假脏状态。
type FormSession struct {
	SessionID  string     `json:"session_id"`
	TenantID   string     `json:"tenant_id"`
	UserID     string     `json:"user_id"`
	EntityKind string     `json:"entity_kind"`
	EntityID   string     `json:"entity_id,omitempty"` // edit 模式为 lead_id
	Mode       FormMode   `json:"mode"`
	Guard      GuardState `json:"guard"`
	Closed     bool       `json:"closed"`

	// Values/Snapshot 的 key 均为 field_<field_key>
	Values   map[string]any `json:"values"`
	Snapshot map[string]any `json:"snapshot"`
	// Touched 记录用户实际修改过的输入。加载后才新增的自定义字段没有
	// Snapshot 基线，只有被编辑过才参与脏判定。
	Touched map[string]bool `json:"touched,omitempty"`

	Definitions            []FieldDefinition `json:"definitions"`
	DefinitionsRefreshedAt time.Time         `json:"definitions_refreshed_at"`
	OpenedAt               time.Time         `json:"opened_at"`
}

// CanClose 当前状态下是否允许直接关闭（clean 状态关闭无需确认）
func (s *FormSession) CanClose() bool {
	return s.Guard == GuardClean
}
