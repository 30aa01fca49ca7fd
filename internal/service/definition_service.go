package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

var fieldKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DefinitionService 字段定义与状态的管理端编排
type DefinitionService struct {
	defsRepo     repository.FieldDefinitionsRepository
	statusesRepo repository.LeadStatusesRepository
	logger       *zap.Logger
}

func NewDefinitionService(
	defsRepo repository.FieldDefinitionsRepository,
	statusesRepo repository.LeadStatusesRepository,
	logger *zap.Logger,
) *DefinitionService {
	return &DefinitionService{
		defsRepo:     defsRepo,
		statusesRepo: statusesRepo,
		logger:       logger,
	}
}

// ListDefinitionsRequest 查询字段定义
type ListDefinitionsRequest struct {
	TenantID    string
	EntityKind  string
	VisibleOnly bool
}

// ListDefinitionsResponse 字段定义列表
type ListDefinitionsResponse struct {
	Items []domain.FieldDefinition `json:"items"`
	Total int                      `json:"total"`
}

func (s *DefinitionService) ListDefinitions(ctx context.Context, req ListDefinitionsRequest) (*ListDefinitionsResponse, error) {
	kind := req.EntityKind
	if kind == "" {
		kind = domain.EntityKindLead
	}
	defs, err := s.defsRepo.ListDefinitions(ctx, req.TenantID, kind, req.VisibleOnly)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return &ListDefinitionsResponse{Items: defs, Total: len(defs)}, nil
}

// SaveDefinitionRequest 创建/更新字段定义
type SaveDefinitionRequest struct {
	TenantID        string
	ID              string // 更新时必填
	EntityKind      string
	FieldKey        string
	Label           string
	FieldType       string
	IsRequired      bool
	IsVisibleInForm bool
	SortOrder       int
	Options         []string
}

func (s *DefinitionService) validate(req SaveDefinitionRequest) error {
	if req.Label == "" {
		return fmt.Errorf("label is required")
	}
	if !fieldKeyRe.MatchString(req.FieldKey) {
		return fmt.Errorf("field_key must be snake_case: %q", req.FieldKey)
	}
	if req.FieldType == domain.FieldTypeSelect && len(req.Options) == 0 {
		return fmt.Errorf("select field requires options")
	}
	return nil
}

func (s *DefinitionService) toDomain(req SaveDefinitionRequest) *domain.FieldDefinition {
	kind := req.EntityKind
	if kind == "" {
		kind = domain.EntityKindLead
	}
	fieldType := strings.TrimSpace(req.FieldType)
	if fieldType == "" {
		fieldType = domain.FieldTypeText
	}
	return &domain.FieldDefinition{
		ID:              req.ID,
		TenantID:        req.TenantID,
		EntityKind:      kind,
		FieldKey:        req.FieldKey,
		Label:           req.Label,
		FieldType:       fieldType,
		IsRequired:      req.IsRequired,
		IsVisibleInForm: req.IsVisibleInForm,
		SortOrder:       req.SortOrder,
		Options:         domain.FieldOptions{Options: req.Options},
	}
}

func (s *DefinitionService) CreateDefinition(ctx context.Context, req SaveDefinitionRequest) (string, error) {
	if err := s.validate(req); err != nil {
		return "", err
	}
	id, err := s.defsRepo.CreateDefinition(ctx, req.TenantID, s.toDomain(req))
	if err != nil {
		return "", fmt.Errorf("create definition: %w", err)
	}
	s.logger.Info("field definition created",
		zap.String("tenant_id", req.TenantID),
		zap.String("field_key", req.FieldKey))
	return id, nil
}

// UpdateDefinition 更新定义（field_key 不可变，沿用已存储的值）
func (s *DefinitionService) UpdateDefinition(ctx context.Context, req SaveDefinitionRequest) error {
	existing, err := s.defsRepo.GetDefinition(ctx, req.TenantID, req.ID)
	if err != nil {
		return fmt.Errorf("load definition: %w", err)
	}
	req.FieldKey = existing.FieldKey
	req.EntityKind = existing.EntityKind
	if err := s.validate(req); err != nil {
		return err
	}
	if err := s.defsRepo.UpdateDefinition(ctx, req.TenantID, req.ID, s.toDomain(req)); err != nil {
		return fmt.Errorf("update definition: %w", err)
	}
	return nil
}

// DeleteDefinition 删除定义（不级联已存储的字段值）
func (s *DefinitionService) DeleteDefinition(ctx context.Context, tenantID, id string) error {
	if err := s.defsRepo.DeleteDefinition(ctx, tenantID, id); err != nil {
		return fmt.Errorf("delete definition: %w", err)
	}
	return nil
}

// ListStatusesResponse 状态列表
type ListStatusesResponse struct {
	Items []domain.LeadStatus `json:"items"`
	Total int                 `json:"total"`
}

func (s *DefinitionService) ListStatuses(ctx context.Context, tenantID string) (*ListStatusesResponse, error) {
	statuses, err := s.statusesRepo.ListStatuses(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return &ListStatusesResponse{Items: statuses, Total: len(statuses)}, nil
}

// CreateStatusRequest 创建状态
type CreateStatusRequest struct {
	TenantID   string
	StatusName string
	SortOrder  int
	IsDefault  bool
}

func (s *DefinitionService) CreateStatus(ctx context.Context, req CreateStatusRequest) (string, error) {
	if strings.TrimSpace(req.StatusName) == "" {
		return "", fmt.Errorf("status_name is required")
	}
	id, err := s.statusesRepo.CreateStatus(ctx, req.TenantID, &domain.LeadStatus{
		TenantID:   req.TenantID,
		StatusName: req.StatusName,
		SortOrder:  req.SortOrder,
		IsDefault:  req.IsDefault,
	})
	if err != nil {
		return "", fmt.Errorf("create status: %w", err)
	}
	return id, nil
}
