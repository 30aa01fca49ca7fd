package httpapi

import (
	"net/http"
	"strings"

	"studio-data/internal/domain"
	"studio-data/internal/service"

	"go.uber.org/zap"
)

// MessageTemplatesHandler 消息模板 Handler
type MessageTemplatesHandler struct {
	messageService *service.MessageService
	logger         *zap.Logger
}

// NewMessageTemplatesHandler 创建消息模板 Handler
func NewMessageTemplatesHandler(messageService *service.MessageService, logger *zap.Logger) *MessageTemplatesHandler {
	return &MessageTemplatesHandler{
		messageService: messageService,
		logger:         logger,
	}
}

const templatesPath = "/message/api/v1/templates"

// ServeHTTP 实现 http.Handler 接口
func (h *MessageTemplatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	if r.URL.Path == templatesPath {
		switch r.Method {
		case http.MethodGet:
			h.ListTemplates(w, r)
		case http.MethodPost:
			h.CreateTemplate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	if !strings.HasPrefix(r.URL.Path, templatesPath+"/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, templatesPath+"/")
	templateID, action, _ := strings.Cut(rest, "/")
	if templateID == "" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		h.UpdateTemplate(w, r, templateID)
	case action == "" && r.Method == http.MethodDelete:
		h.DeleteTemplate(w, r, templateID)
	case action == "preview" && r.Method == http.MethodPost:
		h.PreviewTemplate(w, r, templateID)
	case action == "send-test" && r.Method == http.MethodPost:
		h.SendTest(w, r, templateID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListTemplates 查询模板列表
func (h *MessageTemplatesHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListTemplatesRequest{
		TenantID: tenantID,
		Channel:  domain.MessageChannel(strings.TrimSpace(r.URL.Query().Get("channel"))),
		Page:     parseInt(r.URL.Query().Get("page"), 1),
		Size:     parseInt(r.URL.Query().Get("size"), 20),
	}

	resp, err := h.messageService.ListTemplates(ctx, req)
	if err != nil {
		h.logger.Error("ListTemplates failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

type templatePayload struct {
	Channel string `json:"channel"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// CreateTemplate 创建模板
func (h *MessageTemplatesHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload templatePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	id, err := h.messageService.CreateTemplate(ctx, service.SaveTemplateRequest{
		TenantID: tenantID,
		Channel:  domain.MessageChannel(payload.Channel),
		Name:     payload.Name,
		Subject:  payload.Subject,
		Body:     payload.Body,
	})
	if err != nil {
		h.logger.Error("CreateTemplate failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"template_id": id}))
}

// UpdateTemplate 更新模板
func (h *MessageTemplatesHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request, templateID string) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload templatePayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	err := h.messageService.UpdateTemplate(ctx, service.SaveTemplateRequest{
		TenantID:   tenantID,
		TemplateID: templateID,
		Channel:    domain.MessageChannel(payload.Channel),
		Name:       payload.Name,
		Subject:    payload.Subject,
		Body:       payload.Body,
	})
	if err != nil {
		h.logger.Error("UpdateTemplate failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"template_id": templateID}))
}

// DeleteTemplate 删除模板
func (h *MessageTemplatesHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request, templateID string) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	if err := h.messageService.DeleteTemplate(ctx, tenantID, templateID); err != nil {
		h.logger.Error("DeleteTemplate failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"template_id": templateID}))
}

// PreviewTemplate 用指定 lead 的字段值渲染模板
func (h *MessageTemplatesHandler) PreviewTemplate(w http.ResponseWriter, r *http.Request, templateID string) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload struct {
		LeadID string `json:"lead_id"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil || payload.LeadID == "" {
		writeJSON(w, http.StatusOK, Fail("lead_id is required"))
		return
	}

	preview, err := h.messageService.PreviewTemplate(ctx, tenantID, templateID, payload.LeadID)
	if err != nil {
		h.logger.Error("PreviewTemplate failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(preview))
}

// SendTest 渲染并发送一条测试消息
func (h *MessageTemplatesHandler) SendTest(w http.ResponseWriter, r *http.Request, templateID string) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload struct {
		LeadID string `json:"lead_id"`
		To     string `json:"to"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	if err := h.messageService.SendTest(ctx, tenantID, templateID, payload.LeadID, payload.To); err != nil {
		h.logger.Error("SendTest failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"template_id": templateID}))
}
