package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"studio-data/internal/domain"
)

// TypeHandler 把一个 field_type 的行为收敛到一张注册表里：
// 校验、脏比较归一化、控件类型。新增字段类型只需注册新 handler，
// 不需要改动任何调用点。
type TypeHandler struct {
	// Kind 渲染计划中的控件类型（input/textarea/number/date/select/checkbox）
	Kind string
	// InputMode 输入法提示（email/tel/numeric），无则为空
	InputMode string
	// Validate 校验一个输入值；nil 表示通过
	Validate func(def domain.FieldDefinition, value any) *FieldError
	// Normalize 归一化为可比较字符串（脏判定用，见 form.IsDirty）
	Normalize func(value any) string
}

var handlers = map[string]TypeHandler{}

// Register 注册一个字段类型的 handler（启动时调用一次）
func Register(fieldType string, h TypeHandler) {
	handlers[fieldType] = h
}

// HandlerFor 查找字段类型的 handler，未知类型回落到 text
func HandlerFor(fieldType string) TypeHandler {
	if h, ok := handlers[fieldType]; ok {
		return h
	}
	return handlers[domain.FieldTypeText]
}

func init() {
	text := TypeHandler{
		Kind:      "input",
		Validate:  validateRequiredString,
		Normalize: normalizeString,
	}
	Register(domain.FieldTypeText, text)

	textarea := text
	textarea.Kind = "textarea"
	Register(domain.FieldTypeTextarea, textarea)

	Register(domain.FieldTypeEmail, TypeHandler{
		Kind:      "input",
		InputMode: "email",
		Validate:  validateEmail,
		Normalize: normalizeString,
	})

	phone := text
	phone.InputMode = "tel"
	Register(domain.FieldTypePhone, phone)

	Register(domain.FieldTypeNumber, TypeHandler{
		Kind:      "number",
		InputMode: "numeric",
		Validate:  validateNumber,
		Normalize: normalizeNumber,
	})

	Register(domain.FieldTypeDate, TypeHandler{
		Kind:      "date",
		Validate:  validateRequiredString,
		Normalize: normalizeString,
	})

	sel := text
	sel.Kind = "select"
	Register(domain.FieldTypeSelect, sel)

	Register(domain.FieldTypeCheckbox, TypeHandler{
		Kind: "checkbox",
		// checkbox 没有"必填为空"的概念：false 也是合法值
		Validate:  func(domain.FieldDefinition, any) *FieldError { return nil },
		Normalize: func(v any) string { return strconv.FormatBool(CoerceBool(v)) },
	})
}

// 基础 email 形状校验（与前端保持一致的宽松规则）
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateRequiredString(def domain.FieldDefinition, value any) *FieldError {
	if def.IsRequired && strings.TrimSpace(CoerceString(value)) == "" {
		return requiredError(def)
	}
	return nil
}

func validateEmail(def domain.FieldDefinition, value any) *FieldError {
	s := strings.TrimSpace(CoerceString(value))
	if s == "" {
		if def.IsRequired {
			return requiredError(def)
		}
		return nil
	}
	if !emailRe.MatchString(s) {
		return formatError(def, "must be a valid email address")
	}
	return nil
}

func validateNumber(def domain.FieldDefinition, value any) *FieldError {
	switch v := value.(type) {
	case nil:
	case float64, float32, int, int64:
		return nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			break
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return formatError(def, "must be a number")
		}
		return nil
	default:
		return formatError(def, "must be a number")
	}
	if def.IsRequired {
		return requiredError(def)
	}
	return nil
}

func requiredError(def domain.FieldDefinition) *FieldError {
	return &FieldError{
		Name:     def.FormName(),
		FieldKey: def.FieldKey,
		Message:  def.Label + " is required",
	}
}

func formatError(def domain.FieldDefinition, msg string) *FieldError {
	return &FieldError{
		Name:     def.FormName(),
		FieldKey: def.FieldKey,
		Message:  def.Label + " " + msg,
	}
}

// normalizeString 默认归一化：null/undefined 归空串，数组排序后拼接，
// 其余按字符串比较（选择顺序不同不算脏）。
func normalizeString(v any) string {
	if arr, ok := toStringSlice(v); ok {
		sort.Strings(arr)
		return strings.Join(arr, ",")
	}
	return CoerceString(v)
}

// normalizeNumber 归一化为有限数字的最短十进制表示，否则空串
func normalizeNumber(v any) string {
	f, ok := coerceFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CoerceString 把任意 JSON 解码值转成字符串（nil -> ""）
func CoerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		if arr, ok := toStringSlice(v); ok {
			return strings.Join(arr, ",")
		}
		return fmt.Sprintf("%v", t)
	}
}

// CoerceBool checkbox 值的布尔化（字符串 "true" 以外都视为 false）
func CoerceBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	case float64:
		return t != 0
	}
	return false
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func toStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, CoerceString(e))
		}
		return out, true
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out, true
	}
	return nil, false
}

// ToNullableString 提交序列化规则（与存储层的 nullable string 对齐）：
// Date -> ISO 日期串，bool -> "true"/"false"，数组 -> 逗号拼接，
// 其余 String(value)；空值（nil / 空串）-> nil。
func ToNullableString(v any) *string {
	if v == nil {
		return nil
	}
	s := CoerceString(v)
	if _, ok := v.(string); ok {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return nil
	}
	return &s
}
