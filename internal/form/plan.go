package form

import (
	"sort"

	"studio-data/internal/domain"
	"studio-data/internal/schema"
)

// Control 渲染计划中的一个控件描述（前端按 Kind 绑定对应控件）
type Control struct {
	Name      string   `json:"name"` // 表单输入名 field_<key>
	FieldKey  string   `json:"field_key"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`                 // input/textarea/number/date/select/checkbox
	InputMode string   `json:"input_mode,omitempty"` // email/tel/numeric
	Required  bool     `json:"required"`             // 标签旁渲染必填标记
	Rows      int      `json:"rows,omitempty"`       // textarea 固定行数
	Options   []string `json:"options,omitempty"`    // select 候选项
	// InlineLabel checkbox 的说明文字跟在控件旁边，而不是浮动字段标签
	InlineLabel bool `json:"inline_label,omitempty"`
	// DisplayFormat date 控件有值时的展示格式提示（内部值始终是 yyyy-mm-dd）
	DisplayFormat string `json:"display_format,omitempty"`
}

// Plan 一个表单的完整渲染计划
type Plan struct {
	Controls []Control `json:"controls"`
	// Empty 过滤后没有可渲染字段时为 true（前端渲染"无字段"占位）
	Empty bool `json:"empty"`
}

const textareaRows = 3

// BuildPlan 把可见字段定义映射成渲染计划，按 sort_order 升序。
func BuildPlan(defs []domain.FieldDefinition) Plan {
	visible := make([]domain.FieldDefinition, 0, len(defs))
	for _, d := range defs {
		if d.IsVisibleInForm {
			visible = append(visible, d)
		}
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].SortOrder < visible[j].SortOrder
	})

	plan := Plan{Controls: make([]Control, 0, len(visible))}
	for _, d := range visible {
		h := schema.HandlerFor(d.FieldType)
		c := Control{
			Name:      d.FormName(),
			FieldKey:  d.FieldKey,
			Label:     d.Label,
			Kind:      h.Kind,
			InputMode: h.InputMode,
			Required:  d.IsRequired,
		}
		switch h.Kind {
		case "textarea":
			c.Rows = textareaRows
		case "select":
			c.Options = d.Options.Options
		case "checkbox":
			c.InlineLabel = true
		case "date":
			c.DisplayFormat = "long"
		}
		plan.Controls = append(plan.Controls, c)
	}
	plan.Empty = len(plan.Controls) == 0
	return plan
}
