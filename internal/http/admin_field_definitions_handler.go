package httpapi

import (
	"net/http"
	"strings"

	"studio-data/internal/service"

	"go.uber.org/zap"
)

// FieldDefinitionsHandler 字段定义管理 Handler
type FieldDefinitionsHandler struct {
	definitionService *service.DefinitionService
	logger            *zap.Logger
}

// NewFieldDefinitionsHandler 创建字段定义管理 Handler
func NewFieldDefinitionsHandler(definitionService *service.DefinitionService, logger *zap.Logger) *FieldDefinitionsHandler {
	return &FieldDefinitionsHandler{
		definitionService: definitionService,
		logger:            logger,
	}
}

const fieldDefinitionsPath = "/admin/api/v1/field-definitions"

// ServeHTTP 实现 http.Handler 接口
func (h *FieldDefinitionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	switch {
	case r.URL.Path == fieldDefinitionsPath && r.Method == http.MethodGet:
		h.ListDefinitions(w, r)
	case r.URL.Path == fieldDefinitionsPath && r.Method == http.MethodPost:
		h.CreateDefinition(w, r)
	case strings.HasPrefix(r.URL.Path, fieldDefinitionsPath+"/") && r.Method == http.MethodPut:
		h.UpdateDefinition(w, r)
	case strings.HasPrefix(r.URL.Path, fieldDefinitionsPath+"/") && r.Method == http.MethodDelete:
		h.DeleteDefinition(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListDefinitions 查询字段定义列表
func (h *FieldDefinitionsHandler) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListDefinitionsRequest{
		TenantID:    tenantID,
		EntityKind:  strings.TrimSpace(r.URL.Query().Get("entity_kind")),
		VisibleOnly: r.URL.Query().Get("visible_only") == "true",
	}

	resp, err := h.definitionService.ListDefinitions(ctx, req)
	if err != nil {
		h.logger.Error("ListDefinitions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

type fieldDefinitionPayload struct {
	EntityKind      string   `json:"entity_kind"`
	FieldKey        string   `json:"field_key"`
	Label           string   `json:"label"`
	FieldType       string   `json:"field_type"`
	IsRequired      bool     `json:"is_required"`
	IsVisibleInForm bool     `json:"is_visible_in_form"`
	SortOrder       int      `json:"sort_order"`
	Options         []string `json:"options"`
}

// CreateDefinition 创建字段定义
func (h *FieldDefinitionsHandler) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload fieldDefinitionPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	req := service.SaveDefinitionRequest{
		TenantID:        tenantID,
		EntityKind:      payload.EntityKind,
		FieldKey:        payload.FieldKey,
		Label:           payload.Label,
		FieldType:       payload.FieldType,
		IsRequired:      payload.IsRequired,
		IsVisibleInForm: payload.IsVisibleInForm,
		SortOrder:       payload.SortOrder,
		Options:         payload.Options,
	}

	id, err := h.definitionService.CreateDefinition(ctx, req)
	if err != nil {
		h.logger.Error("CreateDefinition failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

// UpdateDefinition 更新字段定义
func (h *FieldDefinitionsHandler) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, fieldDefinitionsPath+"/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var payload fieldDefinitionPayload
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	req := service.SaveDefinitionRequest{
		TenantID:        tenantID,
		ID:              id,
		Label:           payload.Label,
		FieldType:       payload.FieldType,
		IsRequired:      payload.IsRequired,
		IsVisibleInForm: payload.IsVisibleInForm,
		SortOrder:       payload.SortOrder,
		Options:         payload.Options,
	}

	if err := h.definitionService.UpdateDefinition(ctx, req); err != nil {
		h.logger.Error("UpdateDefinition failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}

// DeleteDefinition 删除字段定义
func (h *FieldDefinitionsHandler) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, fieldDefinitionsPath+"/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.definitionService.DeleteDefinition(ctx, tenantID, id); err != nil {
		h.logger.Error("DeleteDefinition failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"id": id}))
}
