package service

import (
	"errors"
	"fmt"

	"studio-data/internal/schema"
)

// 提交边界的错误分类：
//   - ValidationError   schema 校验失败，发生在任何写操作之前，逐字段内联展示
//   - ConfigurationError 必需上下文（tenant/user）缺失，提交在任何写之前中止
//   - BackendWriteError  某一步写失败，提交在该步中止，之前的写不回滚
//
// 所有错误都在提交边界处理完（toast + 表单保持打开和脏状态），不向上传播
// 到全局错误处理。

// ValidationError 校验失败（包含全部失败字段）
type ValidationError struct {
	Fields []schema.FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// AsValidationError 判断并提取 ValidationError
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// ConfigurationError 必需上下文缺失（organization/user 不可解析）
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// BackendWriteError 后端写失败（哪一步失败记录在 Op）
type BackendWriteError struct {
	Op  string // "resolve_status" / "create_lead" / "update_lead" / "upsert_values"
	Err error
}

func (e *BackendWriteError) Error() string {
	return fmt.Sprintf("backend write failed at %s: %v", e.Op, e.Err)
}

func (e *BackendWriteError) Unwrap() error { return e.Err }
