package httpapi

import (
	"net/http"

	"studio-data/internal/service"

	"go.uber.org/zap"
)

// LeadStatusesHandler 客资状态管理 Handler
type LeadStatusesHandler struct {
	definitionService *service.DefinitionService
	logger            *zap.Logger
}

// NewLeadStatusesHandler 创建状态管理 Handler
func NewLeadStatusesHandler(definitionService *service.DefinitionService, logger *zap.Logger) *LeadStatusesHandler {
	return &LeadStatusesHandler{
		definitionService: definitionService,
		logger:            logger,
	}
}

const leadStatusesPath = "/admin/api/v1/lead-statuses"

// ServeHTTP 实现 http.Handler 接口
func (h *LeadStatusesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == leadStatusesPath && r.Method == http.MethodGet:
		h.ListStatuses(w, r)
	case r.URL.Path == leadStatusesPath && r.Method == http.MethodPost:
		h.CreateStatus(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListStatuses 查询状态列表
func (h *LeadStatusesHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.definitionService.ListStatuses(ctx, tenantID)
	if err != nil {
		h.logger.Error("ListStatuses failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// CreateStatus 创建状态
func (h *LeadStatusesHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	var payload struct {
		StatusName string `json:"status_name"`
		SortOrder  int    `json:"sort_order"`
		IsDefault  bool   `json:"is_default"`
	}
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	id, err := h.definitionService.CreateStatus(ctx, service.CreateStatusRequest{
		TenantID:   tenantID,
		StatusName: payload.StatusName,
		SortOrder:  payload.SortOrder,
		IsDefault:  payload.IsDefault,
	})
	if err != nil {
		h.logger.Error("CreateStatus failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"status_id": id}))
}
