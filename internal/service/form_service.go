package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
	"studio-data/internal/schema"
)

// FormService 动态表单提交编排
// 提交是一段有序的多步写入，没有事务/补偿：任何一步失败即中止，
// 之前的写保留。失败原因通过 Notifier 反馈，表单保持打开和脏状态。
type FormService struct {
	leadsRepo    repository.LeadsRepository
	statusesRepo repository.LeadStatusesRepository
	defsRepo     repository.FieldDefinitionsRepository
	valuesRepo   repository.FieldValuesRepository
	notifier     Notifier
	translator   Translator
	logger       *zap.Logger
}

func NewFormService(
	leadsRepo repository.LeadsRepository,
	statusesRepo repository.LeadStatusesRepository,
	defsRepo repository.FieldDefinitionsRepository,
	valuesRepo repository.FieldValuesRepository,
	notifier Notifier,
	translator Translator,
	logger *zap.Logger,
) *FormService {
	return &FormService{
		leadsRepo:    leadsRepo,
		statusesRepo: statusesRepo,
		defsRepo:     defsRepo,
		valuesRepo:   valuesRepo,
		notifier:     notifier,
		translator:   translator,
		logger:       logger,
	}
}

// SubmitRequest 一次表单提交
// Values 的 key 为 field_<field_key>，与渲染输出的输入名一致。
type SubmitRequest struct {
	TenantID string
	UserID   string
	Mode     domain.FormMode
	LeadID   string // edit 模式必填
	Values   map[string]any
}

// SubmitResult 提交成功的结果
type SubmitResult struct {
	LeadID string `json:"lead_id"`
}

// Submit 执行提交：校验 -> 固定列写入 -> 动态字段值 upsert -> 成功反馈
// 步骤失败时返回分类错误（见 errors.go），校验失败不产生 toast，
// 其余失败产生 destructive toast。
func (s *FormService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if req.TenantID == "" || req.UserID == "" {
		s.notifier.Notify(Notification{
			Title:       s.translator.T("leads.form.config_error.title", nil),
			Description: s.translator.T("leads.form.config_error.desc", nil),
			Variant:     VariantDestructive,
		})
		return nil, &ConfigurationError{Reason: "tenant or user not resolved"}
	}

	defs, err := s.defsRepo.ListDefinitions(ctx, req.TenantID, domain.EntityKindLead, true)
	if err != nil {
		return nil, s.writeFailed("load_definitions", err)
	}

	sch := schema.Synthesize(defs)
	if fieldErrs := sch.Validate(req.Values); len(fieldErrs) > 0 {
		// 校验失败内联展示，不触发 toast，也不发起任何写
		return nil, &ValidationError{Fields: fieldErrs}
	}

	leadID := req.LeadID
	switch req.Mode {
	case domain.FormModeCreate:
		leadID, err = s.createLead(ctx, req)
	case domain.FormModeEdit:
		err = s.updateLead(ctx, req)
	default:
		return nil, fmt.Errorf("unknown form mode: %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err := s.upsertCustomValues(ctx, req, leadID); err != nil {
		return nil, err
	}

	name := coreValue(req.Values, "name")
	if name == "" {
		name = s.translator.T("leads.form.unnamed", nil)
	}
	titleKey, descKey := "leads.form.updated.title", "leads.form.updated.desc"
	if req.Mode == domain.FormModeCreate {
		titleKey, descKey = "leads.form.created.title", "leads.form.created.desc"
	}
	s.notifier.Notify(Notification{
		Title:       s.translator.T(titleKey, nil),
		Description: s.translator.T(descKey, map[string]string{"name": name}),
		Variant:     VariantSuccess,
	})
	s.logger.Info("form submitted",
		zap.String("tenant_id", req.TenantID),
		zap.String("lead_id", leadID),
		zap.String("mode", string(req.Mode)))

	return &SubmitResult{LeadID: leadID}, nil
}

// createLead create 模式的固定列写入
// name 为空时使用占位名，status 取表单值（展示名查找）或租户默认状态。
func (s *FormService) createLead(ctx context.Context, req SubmitRequest) (string, error) {
	name := coreValue(req.Values, "name")
	if name == "" {
		name = s.translator.T("leads.form.unnamed", nil)
	}

	statusID, err := s.resolveStatus(ctx, req.TenantID, coreValue(req.Values, "status"))
	if err != nil {
		return "", s.writeFailed("resolve_status", err)
	}

	lead := &domain.Lead{
		TenantID: req.TenantID,
		Name:     name,
		Email:    optional(coreValue(req.Values, "email")),
		Phone:    optional(coreValue(req.Values, "phone")),
		Notes:    optional(coreValue(req.Values, "notes")),
		StatusID: statusID,
	}
	leadID, err := s.leadsRepo.CreateLead(ctx, req.TenantID, lead)
	if err != nil {
		return "", s.writeFailed("create_lead", err)
	}
	return leadID, nil
}

// updateLead edit 模式的固定列写入
// 只更新表单里非空的固定列，name 永远不会被置空。
func (s *FormService) updateLead(ctx context.Context, req SubmitRequest) error {
	if req.LeadID == "" {
		return fmt.Errorf("lead_id required in edit mode")
	}

	var update repository.LeadUpdate
	if v := coreValue(req.Values, "name"); v != "" {
		update.Name = &v
	}
	if v := coreValue(req.Values, "email"); v != "" {
		update.Email = &v
	}
	if v := coreValue(req.Values, "phone"); v != "" {
		update.Phone = &v
	}
	if v := coreValue(req.Values, "notes"); v != "" {
		update.Notes = &v
	}
	if v := coreValue(req.Values, "status"); v != "" {
		statusID, err := s.resolveStatus(ctx, req.TenantID, v)
		if err != nil {
			return s.writeFailed("resolve_status", err)
		}
		update.StatusID = statusID
	}

	if update.IsEmpty() {
		return nil
	}
	if err := s.leadsRepo.UpdateLead(ctx, req.TenantID, req.LeadID, update); err != nil {
		return s.writeFailed("update_lead", err)
	}
	return nil
}

// resolveStatus 把表单提交的状态展示名解析为 status_id
// 空值退回租户默认状态。沿用原始的展示名等值查找语义：状态改名后
// 旧表单值会解析失败，这里视为写失败中止提交。
func (s *FormService) resolveStatus(ctx context.Context, tenantID, statusName string) (*string, error) {
	if statusName == "" {
		st, err := s.statusesRepo.GetDefaultStatus(ctx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("default status: %w", err)
		}
		return &st.StatusID, nil
	}
	st, err := s.statusesRepo.GetStatusByName(ctx, tenantID, statusName)
	if err != nil {
		return nil, fmt.Errorf("status %q: %w", statusName, err)
	}
	return &st.StatusID, nil
}

// upsertCustomValues 序列化并批量写入动态字段值
// create 模式跳过序列化为 nil 的值（新实体没有可清空的旧值），
// edit 模式保留 nil 表示清空。
func (s *FormService) upsertCustomValues(ctx context.Context, req SubmitRequest, leadID string) error {
	values := make(map[string]*string)
	for name, v := range req.Values {
		if !strings.HasPrefix(name, domain.FormFieldPrefix) {
			continue
		}
		fieldKey := strings.TrimPrefix(name, domain.FormFieldPrefix)
		serialized := schema.ToNullableString(v)
		if serialized == nil && req.Mode == domain.FormModeCreate {
			continue
		}
		values[fieldKey] = serialized
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.valuesRepo.UpsertValues(ctx, req.TenantID, domain.EntityKindLead, leadID, values); err != nil {
		return s.writeFailed("upsert_values", err)
	}
	return nil
}

// writeFailed 包装写失败并发出 destructive toast
func (s *FormService) writeFailed(op string, err error) error {
	werr := &BackendWriteError{Op: op, Err: err}
	s.logger.Error("form submit failed", zap.String("op", op), zap.Error(err))
	s.notifier.Notify(Notification{
		Title:       s.translator.T("leads.form.save_failed.title", nil),
		Description: s.translator.T("leads.form.save_failed.desc", map[string]string{"reason": err.Error()}),
		Variant:     VariantDestructive,
	})
	return werr
}

// coreValue 取固定列对应的表单值（去首尾空白）
func coreValue(values map[string]any, key string) string {
	return strings.TrimSpace(schema.CoerceString(values[domain.FormFieldPrefix+key]))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
