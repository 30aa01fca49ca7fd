package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"studio-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresMessageTemplatesRepository 消息模板Repository实现
type PostgresMessageTemplatesRepository struct {
	db *sql.DB
}

// NewPostgresMessageTemplatesRepository 创建消息模板Repository
func NewPostgresMessageTemplatesRepository(db *sql.DB) *PostgresMessageTemplatesRepository {
	return &PostgresMessageTemplatesRepository{db: db}
}

var _ MessageTemplatesRepository = (*PostgresMessageTemplatesRepository)(nil)

const messageTemplateColumns = `
	template_id::text,
	tenant_id::text,
	channel,
	name,
	subject,
	body,
	created_at,
	updated_at
`

// GetTemplate 根据template_id获取模板
func (r *PostgresMessageTemplatesRepository) GetTemplate(ctx context.Context, tenantID, templateID string) (*domain.MessageTemplate, error) {
	if tenantID == "" || templateID == "" {
		return nil, sql.ErrNoRows
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+messageTemplateColumns+`
		FROM message_templates
		WHERE tenant_id = $1 AND template_id = $2
	`, tenantID, templateID)

	tpl, err := scanMessageTemplate(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("message template not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get message template: %w", err)
	}
	return tpl, nil
}

// ListTemplates 查询模板列表
func (r *PostgresMessageTemplatesRepository) ListTemplates(ctx context.Context, tenantID string, channel domain.MessageChannel, page, size int) ([]*domain.MessageTemplate, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if channel != "" {
		where = append(where, fmt.Sprintf("channel = $%d", argIdx))
		args = append(args, string(channel))
		argIdx++
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM message_templates WHERE %s`, whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count message templates: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM message_templates
		WHERE %s
		ORDER BY channel, name
		LIMIT $%d OFFSET $%d
	`, messageTemplateColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list message templates: %w", err)
	}
	defer rows.Close()

	var tpls []*domain.MessageTemplate
	for rows.Next() {
		tpl, err := scanMessageTemplate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message template: %w", err)
		}
		tpls = append(tpls, tpl)
	}
	return tpls, total, rows.Err()
}

// CreateTemplate 创建模板
func (r *PostgresMessageTemplatesRepository) CreateTemplate(ctx context.Context, tenantID string, tpl *domain.MessageTemplate) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if !tpl.Channel.IsValid() {
		return "", fmt.Errorf("invalid channel: %s", tpl.Channel)
	}

	templateID := tpl.TemplateID
	if templateID == "" {
		templateID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_templates (template_id, tenant_id, channel, name, subject, body)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, templateID, tenantID, string(tpl.Channel), tpl.Name, tpl.Subject, tpl.Body)
	if err != nil {
		return "", fmt.Errorf("failed to create message template: %w", err)
	}
	return templateID, nil
}

// UpdateTemplate 更新模板
func (r *PostgresMessageTemplatesRepository) UpdateTemplate(ctx context.Context, tenantID, templateID string, tpl *domain.MessageTemplate) error {
	if tenantID == "" || templateID == "" {
		return fmt.Errorf("tenant_id and template_id are required")
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE message_templates
		SET channel = $3, name = $4, subject = $5, body = $6, updated_at = now()
		WHERE tenant_id = $1 AND template_id = $2
	`, tenantID, templateID, string(tpl.Channel), tpl.Name, tpl.Subject, tpl.Body)
	if err != nil {
		return fmt.Errorf("failed to update message template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message template not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteTemplate 删除模板
func (r *PostgresMessageTemplatesRepository) DeleteTemplate(ctx context.Context, tenantID, templateID string) error {
	if tenantID == "" || templateID == "" {
		return fmt.Errorf("tenant_id and template_id are required")
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM message_templates WHERE tenant_id = $1 AND template_id = $2`,
		tenantID, templateID)
	if err != nil {
		return fmt.Errorf("failed to delete message template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message template not found: %w", sql.ErrNoRows)
	}
	return nil
}

func scanMessageTemplate(row rowScanner) (*domain.MessageTemplate, error) {
	var tpl domain.MessageTemplate
	var channel string
	err := row.Scan(
		&tpl.TemplateID,
		&tpl.TenantID,
		&channel,
		&tpl.Name,
		&tpl.Subject,
		&tpl.Body,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tpl.Channel = domain.MessageChannel(channel)
	return &tpl, nil
}
