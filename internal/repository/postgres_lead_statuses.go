package repository

import (
	"context"
	"database/sql"
	"fmt"

	"studio-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresLeadStatusesRepository 客资状态Repository实现
type PostgresLeadStatusesRepository struct {
	db *sql.DB
}

// NewPostgresLeadStatusesRepository 创建客资状态Repository
func NewPostgresLeadStatusesRepository(db *sql.DB) *PostgresLeadStatusesRepository {
	return &PostgresLeadStatusesRepository{db: db}
}

var _ LeadStatusesRepository = (*PostgresLeadStatusesRepository)(nil)

const leadStatusColumns = `
	status_id::text,
	tenant_id::text,
	status_name,
	sort_order,
	is_default
`

// ListStatuses 查询tenant的全部状态
func (r *PostgresLeadStatusesRepository) ListStatuses(ctx context.Context, tenantID string) ([]domain.LeadStatus, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+leadStatusColumns+`
		FROM lead_statuses
		WHERE tenant_id = $1
		ORDER BY sort_order, status_name
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.LeadStatus
	for rows.Next() {
		var s domain.LeadStatus
		if err := rows.Scan(&s.StatusID, &s.TenantID, &s.StatusName, &s.SortOrder, &s.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan lead status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

// GetDefaultStatus 获取默认状态
func (r *PostgresLeadStatusesRepository) GetDefaultStatus(ctx context.Context, tenantID string) (*domain.LeadStatus, error) {
	if tenantID == "" {
		return nil, sql.ErrNoRows
	}

	var s domain.LeadStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT `+leadStatusColumns+`
		FROM lead_statuses
		WHERE tenant_id = $1
		ORDER BY is_default DESC, sort_order
		LIMIT 1
	`, tenantID).Scan(&s.StatusID, &s.TenantID, &s.StatusName, &s.SortOrder, &s.IsDefault)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no lead status configured: %w", err)
		}
		return nil, fmt.Errorf("failed to get default status: %w", err)
	}
	return &s, nil
}

// GetStatusByName 按展示名查找状态（多个命中取 sort_order 最小）
func (r *PostgresLeadStatusesRepository) GetStatusByName(ctx context.Context, tenantID, statusName string) (*domain.LeadStatus, error) {
	if tenantID == "" || statusName == "" {
		return nil, sql.ErrNoRows
	}

	var s domain.LeadStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT `+leadStatusColumns+`
		FROM lead_statuses
		WHERE tenant_id = $1 AND status_name = $2
		ORDER BY sort_order
		LIMIT 1
	`, tenantID, statusName).Scan(&s.StatusID, &s.TenantID, &s.StatusName, &s.SortOrder, &s.IsDefault)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("lead status not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get status by name: %w", err)
	}
	return &s, nil
}

// CreateStatus 创建状态
func (r *PostgresLeadStatusesRepository) CreateStatus(ctx context.Context, tenantID string, status *domain.LeadStatus) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}

	statusID := status.StatusID
	if statusID == "" {
		statusID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO lead_statuses (status_id, tenant_id, status_name, sort_order, is_default)
		VALUES ($1, $2, $3, $4, $5)
	`, statusID, tenantID, status.StatusName, status.SortOrder, status.IsDefault)
	if err != nil {
		return "", fmt.Errorf("failed to create lead status: %w", err)
	}
	return statusID, nil
}
