package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

// SMS 长度规则（GSM-7 折算按字符数近似处理）
const (
	smsSingleSegment = 160
	smsMultiSegment  = 153
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-z0-9_]+)\s*\}\}`)

// MessageService 消息模板渲染和测试发送
// 占位符 {{key}} 的取值优先级与表单展示一致：动态 FieldValue 优先，
// 固定列兜底，status 解析为展示名。解析不到的 key 替换为空串并记录。
type MessageService struct {
	templatesRepo repository.MessageTemplatesRepository
	leadsRepo     repository.LeadsRepository
	valuesRepo    repository.FieldValuesRepository
	statusesRepo  repository.LeadStatusesRepository
	gateway       *GatewayClient // nil 时测试发送不可用
	logger        *zap.Logger
}

func NewMessageService(
	templatesRepo repository.MessageTemplatesRepository,
	leadsRepo repository.LeadsRepository,
	valuesRepo repository.FieldValuesRepository,
	statusesRepo repository.LeadStatusesRepository,
	gateway *GatewayClient,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		templatesRepo: templatesRepo,
		leadsRepo:     leadsRepo,
		valuesRepo:    valuesRepo,
		statusesRepo:  statusesRepo,
		gateway:       gateway,
		logger:        logger,
	}
}

// ListTemplatesRequest 查询模板列表
type ListTemplatesRequest struct {
	TenantID string
	Channel  domain.MessageChannel // 可选过滤
	Page     int
	Size     int
}

// ListTemplatesResponse 模板列表
type ListTemplatesResponse struct {
	Items []*domain.MessageTemplate `json:"items"`
	Total int                       `json:"total"`
}

func (s *MessageService) ListTemplates(ctx context.Context, req ListTemplatesRequest) (*ListTemplatesResponse, error) {
	if req.Channel != "" && !req.Channel.IsValid() {
		return nil, fmt.Errorf("unknown channel: %q", req.Channel)
	}
	tpls, total, err := s.templatesRepo.ListTemplates(ctx, req.TenantID, req.Channel, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return &ListTemplatesResponse{Items: tpls, Total: total}, nil
}

// SaveTemplateRequest 创建/更新模板
type SaveTemplateRequest struct {
	TenantID   string
	TemplateID string // 更新时必填
	Channel    domain.MessageChannel
	Name       string
	Subject    string
	Body       string
}

func (req SaveTemplateRequest) validate() error {
	if !req.Channel.IsValid() {
		return fmt.Errorf("unknown channel: %q", req.Channel)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

func (s *MessageService) CreateTemplate(ctx context.Context, req SaveTemplateRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	id, err := s.templatesRepo.CreateTemplate(ctx, req.TenantID, &domain.MessageTemplate{
		TenantID: req.TenantID,
		Channel:  req.Channel,
		Name:     req.Name,
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if err != nil {
		return "", fmt.Errorf("create template: %w", err)
	}
	return id, nil
}

func (s *MessageService) UpdateTemplate(ctx context.Context, req SaveTemplateRequest) error {
	if err := req.validate(); err != nil {
		return err
	}
	tpl := &domain.MessageTemplate{
		TemplateID: req.TemplateID,
		TenantID:   req.TenantID,
		Channel:    req.Channel,
		Name:       req.Name,
		Subject:    req.Subject,
		Body:       req.Body,
	}
	if err := s.templatesRepo.UpdateTemplate(ctx, req.TenantID, req.TemplateID, tpl); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}

func (s *MessageService) DeleteTemplate(ctx context.Context, tenantID, templateID string) error {
	if err := s.templatesRepo.DeleteTemplate(ctx, tenantID, templateID); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// Preview 模板对一个 lead 的渲染结果
type Preview struct {
	Channel     domain.MessageChannel `json:"channel"`
	Subject     string                `json:"subject,omitempty"`
	Body        string                `json:"body"`
	SMSSegments int                   `json:"sms_segments,omitempty"`
	MissingKeys []string              `json:"missing_keys,omitempty"`
}

// PreviewTemplate 用 lead 的字段值渲染模板
func (s *MessageService) PreviewTemplate(ctx context.Context, tenantID, templateID, leadID string) (*Preview, error) {
	tpl, err := s.templatesRepo.GetTemplate(ctx, tenantID, templateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	resolve, err := s.fieldResolver(ctx, tenantID, leadID)
	if err != nil {
		return nil, err
	}

	missing := map[string]bool{}
	body := substitute(tpl.Body, resolve, missing)
	subject := ""
	if tpl.Channel == domain.ChannelEmail {
		subject = substitute(tpl.Subject, resolve, missing)
	}

	p := &Preview{Channel: tpl.Channel, Subject: subject, Body: body}
	if tpl.Channel == domain.ChannelSMS {
		p.SMSSegments = smsSegments(body)
	}
	for k := range missing {
		p.MissingKeys = append(p.MissingKeys, k)
	}
	return p, nil
}

// SendTest 渲染模板并通过网关发送一条测试消息
func (s *MessageService) SendTest(ctx context.Context, tenantID, templateID, leadID, to string) error {
	if s.gateway == nil {
		return &ConfigurationError{Reason: "message gateway not configured"}
	}
	if to == "" {
		return fmt.Errorf("recipient required")
	}

	preview, err := s.PreviewTemplate(ctx, tenantID, templateID, leadID)
	if err != nil {
		return err
	}
	if err := s.gateway.SendMessage(ctx, string(preview.Channel), to, preview.Subject, preview.Body); err != nil {
		return fmt.Errorf("send test message: %w", err)
	}
	s.logger.Info("test message sent",
		zap.String("tenant_id", tenantID),
		zap.String("template_id", templateID),
		zap.String("channel", string(preview.Channel)))
	return nil
}

// fieldResolver 构造 key -> 值 的查找函数（动态值优先，固定列兜底）
func (s *MessageService) fieldResolver(ctx context.Context, tenantID, leadID string) (func(string) (string, bool), error) {
	lead, err := s.leadsRepo.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return nil, fmt.Errorf("load lead: %w", err)
	}
	stored, err := s.valuesRepo.GetValues(ctx, tenantID, domain.EntityKindLead, leadID)
	if err != nil {
		return nil, fmt.Errorf("load field values: %w", err)
	}

	return func(key string) (string, bool) {
		if raw, ok := stored[key]; ok && raw != nil {
			return *raw, true
		}
		if key == "status" {
			if lead.StatusID == nil {
				return "", false
			}
			statuses, err := s.statusesRepo.ListStatuses(ctx, tenantID)
			if err != nil {
				return "", false
			}
			for _, st := range statuses {
				if st.StatusID == *lead.StatusID {
					return st.StatusName, true
				}
			}
			return "", false
		}
		if domain.CoreFieldKeys[key] {
			if v := lead.CoreFallback(key); v != "" {
				return v, true
			}
		}
		return "", false
	}, nil
}

func substitute(text string, resolve func(string) (string, bool), missing map[string]bool) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		key := strings.TrimSpace(strings.Trim(m, "{}"))
		if v, ok := resolve(key); ok {
			return v
		}
		missing[key] = true
		return ""
	})
}

// smsSegments 计算短信分段数：单段 160，超过后按 153/段
func smsSegments(body string) int {
	n := utf8.RuneCountInString(body)
	if n <= smsSingleSegment {
		return 1
	}
	return (n + smsMultiSegment - 1) / smsMultiSegment
}
