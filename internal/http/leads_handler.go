package httpapi

import (
	"net/http"
	"strings"

	"studio-data/internal/service"

	"go.uber.org/zap"
)

// LeadsHandler 客资列表/详情 Handler
// 创建和编辑走表单会话（FormSessionHandler），这里只有读和删除。
type LeadsHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

// NewLeadsHandler 创建客资 Handler
func NewLeadsHandler(leadService *service.LeadService, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{
		leadService: leadService,
		logger:      logger,
	}
}

const leadsPath = "/admin/api/v1/leads"

// ServeHTTP 实现 http.Handler 接口
func (h *LeadsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == leadsPath && r.Method == http.MethodGet:
		h.ListLeads(w, r)
	case strings.HasPrefix(r.URL.Path, leadsPath+"/") && r.Method == http.MethodGet:
		h.GetLead(w, r)
	case strings.HasPrefix(r.URL.Path, leadsPath+"/") && r.Method == http.MethodDelete:
		h.DeleteLead(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListLeads 查询客资列表（搜索、状态过滤、分页）
func (h *LeadsHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	req := service.ListLeadsRequest{
		TenantID: tenantID,
		Search:   strings.TrimSpace(r.URL.Query().Get("search")),
		StatusID: strings.TrimSpace(r.URL.Query().Get("status_id")),
		Page:     parseInt(r.URL.Query().Get("page"), 1),
		Size:     parseInt(r.URL.Query().Get("size"), 20),
	}

	resp, err := h.leadService.ListLeads(ctx, req)
	if err != nil {
		h.logger.Error("ListLeads failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(resp))
}

// GetLead 客资详情（固定列 + 动态字段值合并）
func (h *LeadsHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	leadID := strings.TrimPrefix(r.URL.Path, leadsPath+"/")
	if leadID == "" || strings.Contains(leadID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	detail, err := h.leadService.GetLead(ctx, tenantID, leadID)
	if err != nil {
		h.logger.Error("GetLead failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(detail))
}

// DeleteLead 删除客资（字段值级联删除）
func (h *LeadsHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	leadID := strings.TrimPrefix(r.URL.Path, leadsPath+"/")
	if leadID == "" || strings.Contains(leadID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.leadService.DeleteLead(ctx, tenantID, leadID); err != nil {
		h.logger.Error("DeleteLead failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, Ok(map[string]string{"lead_id": leadID}))
}
