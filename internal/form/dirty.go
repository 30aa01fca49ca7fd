// Package form 实现动态表单的脏状态判定、关闭守卫状态机和渲染计划。
package form

import (
	"studio-data/internal/domain"
	"studio-data/internal/schema"
)

// IsDirty 按字段类型归一化后比较当前值与基线值。
// 直接引用/字符串相等会产生假阳性（null vs ""、3 vs "3"、多选顺序），
// 所以两侧都先过 Normalize。
func IsDirty(current, original any, fieldType string) bool {
	n := schema.HandlerFor(fieldType).Normalize
	return n(current) != n(original)
}

// AnyDirty 对活动定义集合内的字段做 OR 归约，命中第一个脏字段即返回。
// 每次值变化都重新计算，不跨调用缓存。
// 边界：加载后才新增的字段没有 Snapshot 基线，只有出现在 touched 里
// （用户实际编辑过）才参与判定，避免打开对话框时的假脏。
func AnyDirty(s *domain.FormSession) bool {
	for _, d := range s.Definitions {
		name := d.FormName()
		cur, ok := s.Values[name]
		if !ok {
			continue
		}
		orig, hasBaseline := s.Snapshot[name]
		if !hasBaseline {
			if !s.Touched[name] {
				continue
			}
			orig = nil
		}
		if IsDirty(cur, orig, d.FieldType) {
			return true
		}
	}
	return false
}
