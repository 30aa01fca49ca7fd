package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"studio-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresLeadsRepository 客资Repository实现
type PostgresLeadsRepository struct {
	db *sql.DB
}

// NewPostgresLeadsRepository 创建客资Repository
func NewPostgresLeadsRepository(db *sql.DB) *PostgresLeadsRepository {
	return &PostgresLeadsRepository{db: db}
}

var _ LeadsRepository = (*PostgresLeadsRepository)(nil)

const leadColumns = `
	lead_id::text,
	tenant_id::text,
	name,
	email,
	phone,
	notes,
	status_id::text,
	created_at,
	updated_at
`

// GetLead 根据lead_id获取lead
func (r *PostgresLeadsRepository) GetLead(ctx context.Context, tenantID, leadID string) (*domain.Lead, error) {
	if tenantID == "" || leadID == "" {
		return nil, sql.ErrNoRows
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND lead_id = $2
	`, tenantID, leadID)

	lead, err := scanLead(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lead not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// ListLeads 查询leads列表
func (r *PostgresLeadsRepository) ListLeads(ctx context.Context, tenantID string, filter LeadsFilter, page, size int) ([]*domain.Lead, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	argIdx := 2

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}
	if filter.StatusID != "" {
		where = append(where, fmt.Sprintf("status_id = $%d", argIdx))
		args = append(args, filter.StatusID)
		argIdx++
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM leads WHERE %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argIdx, argIdx+1)
	args = append(args, size, (page-1)*size)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, total, rows.Err()
}

// CreateLead 创建lead
func (r *PostgresLeadsRepository) CreateLead(ctx context.Context, tenantID string, lead *domain.Lead) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}

	leadID := lead.LeadID
	if leadID == "" {
		leadID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (lead_id, tenant_id, name, email, phone, notes, status_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, leadID, tenantID, lead.Name, nullableArg(lead.Email), nullableArg(lead.Phone),
		nullableArg(lead.Notes), nullableArg(lead.StatusID))
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return leadID, nil
}

// UpdateLead 更新lead固定列（只更新非 nil 的列）
func (r *PostgresLeadsRepository) UpdateLead(ctx context.Context, tenantID, leadID string, update LeadUpdate) error {
	if tenantID == "" || leadID == "" {
		return fmt.Errorf("tenant_id and lead_id are required")
	}
	if update.IsEmpty() {
		return nil
	}

	set := []string{"updated_at = now()"}
	args := []any{tenantID, leadID}
	argIdx := 3

	appendSet := func(col string, v *string) {
		if v == nil {
			return
		}
		set = append(set, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, *v)
		argIdx++
	}
	appendSet("name", update.Name)
	appendSet("email", update.Email)
	appendSet("phone", update.Phone)
	appendSet("notes", update.Notes)
	appendSet("status_id", update.StatusID)

	query := fmt.Sprintf(`UPDATE leads SET %s WHERE tenant_id = $1 AND lead_id = $2`,
		strings.Join(set, ", "))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteLead 删除lead
func (r *PostgresLeadsRepository) DeleteLead(ctx context.Context, tenantID, leadID string) error {
	if tenantID == "" || leadID == "" {
		return fmt.Errorf("tenant_id and lead_id are required")
	}
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM leads WHERE tenant_id = $1 AND lead_id = $2`, tenantID, leadID)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	return nil
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var lead domain.Lead
	var email, phone, notes, statusID sql.NullString
	err := row.Scan(
		&lead.LeadID,
		&lead.TenantID,
		&lead.Name,
		&email,
		&phone,
		&notes,
		&statusID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Email = nullableString(email)
	lead.Phone = nullableString(phone)
	lead.Notes = nullableString(notes)
	lead.StatusID = nullableString(statusID)
	return &lead, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullableArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
