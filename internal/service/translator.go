package service

import "strings"

// Translator 用户可见文案的查找（key -> 文案，支持 {var} 占位）
type Translator interface {
	T(key string, vars map[string]string) string
}

// MapTranslator 基于内存 map 的默认实现；缺失 key 时原样返回 key
type MapTranslator struct {
	messages map[string]string
}

var _ Translator = (*MapTranslator)(nil)

// NewDefaultTranslator 内置英文文案
func NewDefaultTranslator() *MapTranslator {
	return &MapTranslator{messages: map[string]string{
		"leads.form.unnamed":            "New Lead",
		"leads.form.created.title":      "Lead created",
		"leads.form.created.desc":       "{name} has been added.",
		"leads.form.updated.title":      "Lead updated",
		"leads.form.updated.desc":       "Changes to {name} have been saved.",
		"leads.form.save_failed.title":  "Could not save lead",
		"leads.form.save_failed.desc":   "{reason}",
		"leads.form.config_error.title": "Something is misconfigured",
		"leads.form.config_error.desc":  "Your workspace or account could not be resolved. Please reload and try again.",
	}}
}

func (t *MapTranslator) T(key string, vars map[string]string) string {
	msg, ok := t.messages[key]
	if !ok {
		msg = key
	}
	for k, v := range vars {
		msg = strings.ReplaceAll(msg, "{"+k+"}", v)
	}
	return msg
}
