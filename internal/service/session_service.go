package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/form"
	"studio-data/internal/repository"
	"studio-data/internal/schema"
	"studio-data/internal/store"
)

const sessionKeyPrefix = "form:session:"

// SessionService 表单编辑会话编排
// 会话（值、快照、守卫状态）序列化为 JSON 存在 KV 里，带 TTL。
// 每次变更走 加载 -> 变换 -> 回写，守卫状态机的推进全部在服务端完成。
type SessionService struct {
	kv           store.KV
	defsRepo     repository.FieldDefinitionsRepository
	valuesRepo   repository.FieldValuesRepository
	leadsRepo    repository.LeadsRepository
	statusesRepo repository.LeadStatusesRepository
	formService  *FormService
	logger       *zap.Logger

	ttl        time.Duration
	refreshMin time.Duration
	now        func() time.Time
}

func NewSessionService(
	kv store.KV,
	defsRepo repository.FieldDefinitionsRepository,
	valuesRepo repository.FieldValuesRepository,
	leadsRepo repository.LeadsRepository,
	statusesRepo repository.LeadStatusesRepository,
	formService *FormService,
	ttl, refreshMin time.Duration,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		kv:           kv,
		defsRepo:     defsRepo,
		valuesRepo:   valuesRepo,
		leadsRepo:    leadsRepo,
		statusesRepo: statusesRepo,
		formService:  formService,
		logger:       logger,
		ttl:          ttl,
		refreshMin:   refreshMin,
		now:          time.Now,
	}
}

// OpenRequest 打开一个表单会话
type OpenRequest struct {
	TenantID string
	UserID   string
	LeadID   string // 空 = create 模式
}

// SessionView 会话的对外视图
type SessionView struct {
	SessionID string            `json:"session_id"`
	Mode      domain.FormMode   `json:"mode"`
	Guard     domain.GuardState `json:"guard"`
	Dirty     bool              `json:"dirty"`
	Plan      form.Plan         `json:"plan"`
	Values    map[string]any    `json:"values"`
}

// Open 打开会话：加载定义和初始值，捕获快照，写入 KV。
// 快照必须在定义和初始值都加载完成后才捕获，否则会产生假脏。
func (s *SessionService) Open(ctx context.Context, req OpenRequest) (*SessionView, error) {
	if req.TenantID == "" || req.UserID == "" {
		return nil, &ConfigurationError{Reason: "tenant or user not resolved"}
	}

	defs, err := s.defsRepo.ListDefinitions(ctx, req.TenantID, domain.EntityKindLead, true)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}

	mode := domain.FormModeCreate
	values := make(map[string]any, len(defs))
	if req.LeadID != "" {
		mode = domain.FormModeEdit
		values, err = s.loadEditValues(ctx, req.TenantID, req.LeadID, defs)
		if err != nil {
			return nil, err
		}
	} else {
		for _, d := range defs {
			values[d.FormName()] = emptyValue(d.FieldType)
		}
	}

	now := s.now()
	sess := &domain.FormSession{
		SessionID:              uuid.NewString(),
		TenantID:               req.TenantID,
		UserID:                 req.UserID,
		EntityKind:             domain.EntityKindLead,
		EntityID:               req.LeadID,
		Mode:                   mode,
		Guard:                  domain.GuardClean,
		Values:                 values,
		Snapshot:               copyValues(values),
		Definitions:            defs,
		DefinitionsRefreshedAt: now,
		OpenedAt:               now,
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("form session opened",
		zap.String("session_id", sess.SessionID),
		zap.String("tenant_id", req.TenantID),
		zap.String("mode", string(mode)))
	return s.view(sess), nil
}

// loadEditValues edit 模式的初始值：动态值优先，固定列兜底。
// status 的展示值是状态名，由 status_id 反查。
func (s *SessionService) loadEditValues(ctx context.Context, tenantID, leadID string, defs []domain.FieldDefinition) (map[string]any, error) {
	lead, err := s.leadsRepo.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return nil, fmt.Errorf("load lead: %w", err)
	}
	stored, err := s.valuesRepo.GetValues(ctx, tenantID, domain.EntityKindLead, leadID)
	if err != nil {
		return nil, fmt.Errorf("load field values: %w", err)
	}

	values := make(map[string]any, len(defs))
	for _, d := range defs {
		if raw, ok := stored[d.FieldKey]; ok {
			values[d.FormName()] = storedToFormValue(raw, d.FieldType)
			continue
		}
		if d.FieldKey == "status" {
			values[d.FormName()] = s.statusDisplayName(ctx, tenantID, lead.StatusID)
			continue
		}
		if domain.CoreFieldKeys[d.FieldKey] {
			values[d.FormName()] = lead.CoreFallback(d.FieldKey)
			continue
		}
		values[d.FormName()] = emptyValue(d.FieldType)
	}
	return values, nil
}

// statusDisplayName status_id -> 展示名；解析不了就退回空串
func (s *SessionService) statusDisplayName(ctx context.Context, tenantID string, statusID *string) string {
	if statusID == nil {
		return ""
	}
	statuses, err := s.statusesRepo.ListStatuses(ctx, tenantID)
	if err != nil {
		return ""
	}
	for _, st := range statuses {
		if st.StatusID == *statusID {
			return st.StatusName
		}
	}
	return ""
}

// PatchResult 应用一批变更后的会话状态
type PatchResult struct {
	Guard       domain.GuardState   `json:"guard"`
	Dirty       bool                `json:"dirty"`
	FieldErrors []schema.FieldError `json:"field_errors,omitempty"`
}

// PatchValues 应用用户输入的变更并重算脏状态和守卫状态。
// 逐字段校验结果随结果返回（内联展示），校验失败不阻止值的记录。
func (s *SessionService) PatchValues(ctx context.Context, sessionID string, changes map[string]any) (*PatchResult, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sch := schema.Synthesize(sess.Definitions)
	var fieldErrs []schema.FieldError
	for name, v := range changes {
		sess.Values[name] = v
		if sess.Touched == nil {
			sess.Touched = make(map[string]bool)
		}
		sess.Touched[name] = true
		if fe := sch.ValidateField(name, v); fe != nil {
			fieldErrs = append(fieldErrs, *fe)
		}
	}

	dirty := form.AnyDirty(sess)
	sess.Guard = form.Reconcile(sess.Guard, dirty)
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &PatchResult{Guard: sess.Guard, Dirty: dirty, FieldErrors: fieldErrs}, nil
}

// CloseResult 关闭请求/守卫选择的结果
type CloseResult struct {
	Closed     bool              `json:"closed"`
	Confirming bool              `json:"confirming"`
	Guard      domain.GuardState `json:"guard"`
	LeadID     string            `json:"lead_id,omitempty"`
}

// AttemptClose 处理关闭请求：clean 直接关闭，dirty 进入确认态
func (s *SessionService) AttemptClose(ctx context.Context, sessionID string) (*CloseResult, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state, closeNow := form.AttemptClose(sess.Guard)
	sess.Guard = state
	if closeNow {
		if err := s.discard(ctx, sess); err != nil {
			return nil, err
		}
		return &CloseResult{Closed: true, Guard: state}, nil
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &CloseResult{Confirming: true, Guard: state}, nil
}

// ResolveClose 处理守卫确认框的用户选择。
// discard 回滚到快照后关闭；stay 留在表单；save_and_exit 走提交，
// 成功关闭、失败回 dirty（不再弹守卫框，让用户看到提交错误）。
func (s *SessionService) ResolveClose(ctx context.Context, sessionID string, choice domain.GuardChoice) (*CloseResult, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Guard != domain.GuardConfirmingDiscard {
		return nil, fmt.Errorf("no close confirmation pending for session %s", sessionID)
	}

	outcome := form.ResolveChoice(choice)
	if outcome.ResetToSnapshot {
		sess.Values = copyValues(sess.Snapshot)
		sess.Touched = nil
	}
	if outcome.Submit {
		res, err := s.submit(ctx, sess)
		if err != nil {
			sess.Guard = domain.GuardDirty
			if saveErr := s.save(ctx, sess); saveErr != nil {
				return nil, saveErr
			}
			return nil, err
		}
		if derr := s.discard(ctx, sess); derr != nil {
			return nil, derr
		}
		return &CloseResult{Closed: true, Guard: domain.GuardClean, LeadID: res.LeadID}, nil
	}

	sess.Guard = outcome.State
	if outcome.Close {
		if err := s.discard(ctx, sess); err != nil {
			return nil, err
		}
		return &CloseResult{Closed: true, Guard: outcome.State}, nil
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &CloseResult{Guard: outcome.State}, nil
}

// SubmitView 显式提交的结果
type SubmitView struct {
	LeadID string `json:"lead_id"`
	Closed bool   `json:"closed"`
}

// Submit 显式保存：提交成功后会话关闭
func (s *SessionService) Submit(ctx context.Context, sessionID string) (*SubmitView, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res, err := s.submit(ctx, sess)
	if err != nil {
		// 提交失败表单保持打开和脏状态
		if saveErr := s.save(ctx, sess); saveErr != nil {
			return nil, saveErr
		}
		return nil, err
	}
	if err := s.discard(ctx, sess); err != nil {
		return nil, err
	}
	return &SubmitView{LeadID: res.LeadID, Closed: true}, nil
}

func (s *SessionService) submit(ctx context.Context, sess *domain.FormSession) (*SubmitResult, error) {
	return s.formService.Submit(ctx, SubmitRequest{
		TenantID: sess.TenantID,
		UserID:   sess.UserID,
		Mode:     sess.Mode,
		LeadID:   sess.EntityID,
		Values:   sess.Values,
	})
}

// RefreshResult 定义刷新的结果
type RefreshResult struct {
	Throttled bool      `json:"throttled"`
	Plan      form.Plan `json:"plan"`
}

// RefreshDefinitions 重新加载字段定义（管理员改了配置之后）。
// 按最小间隔节流而不是去重：窗口内的请求直接返回当前定义。
// 已有输入值保留；新出现的字段没有快照基线，脏判定由 Touched 兜底。
func (s *SessionService) RefreshDefinitions(ctx context.Context, sessionID string) (*RefreshResult, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.now().Sub(sess.DefinitionsRefreshedAt) < s.refreshMin {
		return &RefreshResult{Throttled: true, Plan: form.BuildPlan(sess.Definitions)}, nil
	}

	defs, err := s.defsRepo.ListDefinitions(ctx, sess.TenantID, domain.EntityKindLead, true)
	if err != nil {
		return nil, fmt.Errorf("reload definitions: %w", err)
	}
	sess.Definitions = defs
	sess.DefinitionsRefreshedAt = s.now()
	for _, d := range defs {
		if _, ok := sess.Values[d.FormName()]; !ok {
			sess.Values[d.FormName()] = emptyValue(d.FieldType)
		}
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return &RefreshResult{Plan: form.BuildPlan(defs)}, nil
}

// Get 返回会话当前视图
func (s *SessionService) Get(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

func (s *SessionService) view(sess *domain.FormSession) *SessionView {
	return &SessionView{
		SessionID: sess.SessionID,
		Mode:      sess.Mode,
		Guard:     sess.Guard,
		Dirty:     form.AnyDirty(sess),
		Plan:      form.BuildPlan(sess.Definitions),
		Values:    sess.Values,
	}
}

func (s *SessionService) load(ctx context.Context, sessionID string) (*domain.FormSession, error) {
	raw, err := s.kv.Get(ctx, sessionKeyPrefix+sessionID)
	if err == store.ErrMiss {
		return nil, fmt.Errorf("form session %s not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess domain.FormSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *SessionService) save(ctx context.Context, sess *domain.FormSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKeyPrefix+sess.SessionID, string(data), s.ttl); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionService) discard(ctx context.Context, sess *domain.FormSession) error {
	sess.Closed = true
	if err := s.kv.Delete(ctx, sessionKeyPrefix+sess.SessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// emptyValue 字段类型对应的初始空值（checkbox 为 false，其余为空串）
func emptyValue(fieldType string) any {
	if fieldType == domain.FieldTypeCheckbox {
		return false
	}
	return ""
}

// storedToFormValue 把存储的 nullable string 还原为表单值
func storedToFormValue(raw *string, fieldType string) any {
	if fieldType == domain.FieldTypeCheckbox {
		return raw != nil && *raw == "true"
	}
	if raw == nil {
		return ""
	}
	return *raw
}

// copyValues 浅拷贝值表（slice 值单独复制，避免共享底层数组）
func copyValues(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		if arr, ok := v.([]any); ok {
			cp := make([]any, len(arr))
			copy(cp, arr)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
	return dst
}
