package httpapi

import (
	"net/http"
	"strings"

	"studio-data/internal/domain"
	"studio-data/internal/schema"
	"studio-data/internal/service"

	"go.uber.org/zap"
)

// FormSessionHandler 动态表单会话 Handler
// 打开/编辑/关闭/提交的全部守卫逻辑在 SessionService 里，Handler 只做
// 路由分发、参数解析和错误分类映射。
type FormSessionHandler struct {
	sessionService *service.SessionService
	logger         *zap.Logger
}

// NewFormSessionHandler 创建表单会话 Handler
func NewFormSessionHandler(sessionService *service.SessionService, logger *zap.Logger) *FormSessionHandler {
	return &FormSessionHandler{
		sessionService: sessionService,
		logger:         logger,
	}
}

const (
	leadSessionsPath = "/form/api/v1/leads/sessions"
	leadsFormPrefix  = "/form/api/v1/leads/"
	sessionsPrefix   = "/form/api/v1/sessions/"
)

// ServeHTTP 实现 http.Handler 接口
func (h *FormSessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	if r.URL.Path == leadSessionsPath && r.Method == http.MethodPost {
		h.OpenSession(w, r)
		return
	}

	// /form/api/v1/leads/{id}/sessions：按路径打开 edit 会话
	if strings.HasPrefix(r.URL.Path, leadsFormPrefix) {
		rest := strings.TrimPrefix(r.URL.Path, leadsFormPrefix)
		leadID, tail, _ := strings.Cut(rest, "/")
		if leadID != "" && tail == "sessions" && r.Method == http.MethodPost {
			h.OpenSessionForLead(w, r, leadID)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if !strings.HasPrefix(r.URL.Path, sessionsPrefix) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, sessionsPrefix)
	sessionID, action, _ := strings.Cut(rest, "/")
	if sessionID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.GetSession(w, r, sessionID)
	case action == "values" && r.Method == http.MethodPatch:
		h.PatchValues(w, r, sessionID)
	case action == "close" && r.Method == http.MethodPost:
		h.AttemptClose(w, r, sessionID)
	case action == "close/resolve" && r.Method == http.MethodPost:
		h.ResolveClose(w, r, sessionID)
	case action == "submit" && r.Method == http.MethodPost:
		h.Submit(w, r, sessionID)
	case action == "refresh-definitions" && r.Method == http.MethodPost:
		h.RefreshDefinitions(w, r, sessionID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// OpenSession 打开表单会话（body 带 lead_id 为 edit 模式，否则 create）
func (h *FormSessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload struct {
		LeadID string `json:"lead_id"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	view, err := h.sessionService.Open(ctx, service.OpenRequest{
		TenantID: tenantID,
		UserID:   userIDFromReq(r),
		LeadID:   payload.LeadID,
	})
	if err != nil {
		h.logger.Error("OpenSession failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(view))
}

// OpenSessionForLead 打开 edit 会话（lead id 来自路径，不需要 body）
func (h *FormSessionHandler) OpenSessionForLead(w http.ResponseWriter, r *http.Request, leadID string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	view, err := h.sessionService.Open(r.Context(), service.OpenRequest{
		TenantID: tenantID,
		UserID:   userIDFromReq(r),
		LeadID:   leadID,
	})
	if err != nil {
		h.logger.Error("OpenSessionForLead failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(view))
}

// GetSession 返回会话当前状态（渲染计划 + 值 + 守卫状态）
func (h *FormSessionHandler) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, err := h.sessionService.Get(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// PatchValues 应用一批输入变更
func (h *FormSessionHandler) PatchValues(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload struct {
		Changes map[string]any `json:"changes"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if len(payload.Changes) == 0 {
		writeJSON(w, http.StatusOK, Fail("changes is required"))
		return
	}

	res, err := h.sessionService.PatchValues(r.Context(), sessionID, payload.Changes)
	if err != nil {
		h.logger.Error("PatchValues failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// AttemptClose 请求关闭表单（clean 直接关闭，dirty 返回确认态）
func (h *FormSessionHandler) AttemptClose(w http.ResponseWriter, r *http.Request, sessionID string) {
	res, err := h.sessionService.AttemptClose(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// ResolveClose 提交守卫确认框的选择（discard / stay / save_and_exit）
func (h *FormSessionHandler) ResolveClose(w http.ResponseWriter, r *http.Request, sessionID string) {
	var payload struct {
		Choice string `json:"choice"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	res, err := h.sessionService.ResolveClose(r.Context(), sessionID, domain.GuardChoice(payload.Choice))
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// Submit 显式保存
func (h *FormSessionHandler) Submit(w http.ResponseWriter, r *http.Request, sessionID string) {
	view, err := h.sessionService.Submit(r.Context(), sessionID)
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(view))
}

// RefreshDefinitions 重新加载字段定义（节流）
func (h *FormSessionHandler) RefreshDefinitions(w http.ResponseWriter, r *http.Request, sessionID string) {
	res, err := h.sessionService.RefreshDefinitions(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("RefreshDefinitions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// writeSubmitError 提交路径的错误映射：校验失败带逐字段结果，其余按消息返回
func (h *FormSessionHandler) writeSubmitError(w http.ResponseWriter, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		writeJSON(w, http.StatusOK, FailWith("validation failed", map[string][]schema.FieldError{
			"field_errors": ve.Fields,
		}))
		return
	}
	h.logger.Error("form submit failed", zap.Error(err))
	writeJSON(w, http.StatusOK, Fail(err.Error()))
}
