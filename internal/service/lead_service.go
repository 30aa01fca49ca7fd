package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

// LeadService 客资列表/详情编排
// 详情把动态字段值合并进响应：动态值优先，固定列兜底（与表单一致）。
type LeadService struct {
	leadsRepo    repository.LeadsRepository
	valuesRepo   repository.FieldValuesRepository
	defsRepo     repository.FieldDefinitionsRepository
	statusesRepo repository.LeadStatusesRepository
	logger       *zap.Logger
}

func NewLeadService(
	leadsRepo repository.LeadsRepository,
	valuesRepo repository.FieldValuesRepository,
	defsRepo repository.FieldDefinitionsRepository,
	statusesRepo repository.LeadStatusesRepository,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadsRepo:    leadsRepo,
		valuesRepo:   valuesRepo,
		defsRepo:     defsRepo,
		statusesRepo: statusesRepo,
		logger:       logger,
	}
}

// ListLeadsRequest 查询客资列表
type ListLeadsRequest struct {
	TenantID string
	Search   string
	StatusID string
	Page     int
	Size     int
}

// ListLeadsResponse 客资列表
type ListLeadsResponse struct {
	Items []*domain.Lead `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
}

func (s *LeadService) ListLeads(ctx context.Context, req ListLeadsRequest) (*ListLeadsResponse, error) {
	filter := repository.LeadsFilter{Search: req.Search, StatusID: req.StatusID}
	leads, total, err := s.leadsRepo.ListLeads(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return &ListLeadsResponse{Items: leads, Total: total, Page: req.Page, Size: req.Size}, nil
}

// LeadDetail 固定列 + 按定义合并的字段值
type LeadDetail struct {
	Lead       *domain.Lead      `json:"lead"`
	StatusName string            `json:"status_name,omitempty"`
	Fields     map[string]string `json:"fields"` // field_key -> 展示值
}

// GetLead 客资详情
// Fields 按全部定义（含表单不可见的）展开，动态值优先，固定列兜底。
func (s *LeadService) GetLead(ctx context.Context, tenantID, leadID string) (*LeadDetail, error) {
	lead, err := s.leadsRepo.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return nil, fmt.Errorf("load lead: %w", err)
	}
	defs, err := s.defsRepo.ListDefinitions(ctx, tenantID, domain.EntityKindLead, false)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	stored, err := s.valuesRepo.GetValues(ctx, tenantID, domain.EntityKindLead, leadID)
	if err != nil {
		return nil, fmt.Errorf("load field values: %w", err)
	}

	statusName := ""
	if lead.StatusID != nil {
		statuses, err := s.statusesRepo.ListStatuses(ctx, tenantID)
		if err == nil {
			for _, st := range statuses {
				if st.StatusID == *lead.StatusID {
					statusName = st.StatusName
					break
				}
			}
		}
	}

	fields := make(map[string]string, len(defs))
	for _, d := range defs {
		if raw, ok := stored[d.FieldKey]; ok {
			if raw != nil {
				fields[d.FieldKey] = *raw
			} else {
				fields[d.FieldKey] = ""
			}
			continue
		}
		if d.FieldKey == "status" {
			fields[d.FieldKey] = statusName
			continue
		}
		fields[d.FieldKey] = lead.CoreFallback(d.FieldKey)
	}
	return &LeadDetail{Lead: lead, StatusName: statusName, Fields: fields}, nil
}

// DeleteLead 删除客资并级联删除其字段值
func (s *LeadService) DeleteLead(ctx context.Context, tenantID, leadID string) error {
	if err := s.leadsRepo.DeleteLead(ctx, tenantID, leadID); err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if err := s.valuesRepo.DeleteValuesForEntity(ctx, tenantID, domain.EntityKindLead, leadID); err != nil {
		return fmt.Errorf("delete field values: %w", err)
	}
	s.logger.Info("lead deleted",
		zap.String("tenant_id", tenantID),
		zap.String("lead_id", leadID))
	return nil
}
