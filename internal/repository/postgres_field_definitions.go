package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"studio-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresFieldDefinitionsRepository 字段定义Repository实现
type PostgresFieldDefinitionsRepository struct {
	db *sql.DB
}

// NewPostgresFieldDefinitionsRepository 创建字段定义Repository
func NewPostgresFieldDefinitionsRepository(db *sql.DB) *PostgresFieldDefinitionsRepository {
	return &PostgresFieldDefinitionsRepository{db: db}
}

// 确保实现了接口
var _ FieldDefinitionsRepository = (*PostgresFieldDefinitionsRepository)(nil)

const fieldDefinitionColumns = `
	id::text,
	tenant_id::text,
	entity_kind,
	field_key,
	label,
	field_type,
	is_required,
	is_visible_in_form,
	sort_order,
	options
`

// ListDefinitions 查询字段定义列表
func (r *PostgresFieldDefinitionsRepository) ListDefinitions(ctx context.Context, tenantID, entityKind string, visibleOnly bool) ([]domain.FieldDefinition, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `
		SELECT ` + fieldDefinitionColumns + `
		FROM field_definitions
		WHERE tenant_id = $1 AND entity_kind = $2
	`
	if visibleOnly {
		query += ` AND is_visible_in_form = true`
	}
	query += ` ORDER BY sort_order, field_key`

	rows, err := r.db.QueryContext(ctx, query, tenantID, entityKind)
	if err != nil {
		return nil, fmt.Errorf("failed to list field definitions: %w", err)
	}
	defer rows.Close()

	var defs []domain.FieldDefinition
	for rows.Next() {
		def, err := scanFieldDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

// GetDefinition 根据id获取定义
func (r *PostgresFieldDefinitionsRepository) GetDefinition(ctx context.Context, tenantID, id string) (*domain.FieldDefinition, error) {
	if tenantID == "" || id == "" {
		return nil, sql.ErrNoRows
	}

	query := `
		SELECT ` + fieldDefinitionColumns + `
		FROM field_definitions
		WHERE tenant_id = $1 AND id = $2
	`
	row := r.db.QueryRowContext(ctx, query, tenantID, id)
	def, err := scanFieldDefinition(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("field definition not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get field definition: %w", err)
	}
	return def, nil
}

// CreateDefinition 创建定义
func (r *PostgresFieldDefinitionsRepository) CreateDefinition(ctx context.Context, tenantID string, def *domain.FieldDefinition) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if def.FieldKey == "" {
		return "", fmt.Errorf("field_key is required")
	}

	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	optionsJSON, err := json.Marshal(def.Options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO field_definitions (
			id, tenant_id, entity_kind, field_key, label, field_type,
			is_required, is_visible_in_form, sort_order, options
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, tenantID, def.EntityKind, def.FieldKey, def.Label, def.FieldType,
		def.IsRequired, def.IsVisibleInForm, def.SortOrder, optionsJSON)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return "", fmt.Errorf("field_key %q: %w", def.FieldKey, ErrDuplicateFieldKey)
		}
		return "", fmt.Errorf("failed to create field definition: %w", err)
	}
	return id, nil
}

// UpdateDefinition 更新定义（field_key 不变）
func (r *PostgresFieldDefinitionsRepository) UpdateDefinition(ctx context.Context, tenantID, id string, def *domain.FieldDefinition) error {
	if tenantID == "" || id == "" {
		return fmt.Errorf("tenant_id and id are required")
	}

	optionsJSON, err := json.Marshal(def.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE field_definitions
		SET label = $3,
		    field_type = $4,
		    is_required = $5,
		    is_visible_in_form = $6,
		    sort_order = $7,
		    options = $8
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id, def.Label, def.FieldType, def.IsRequired,
		def.IsVisibleInForm, def.SortOrder, optionsJSON)
	if err != nil {
		return fmt.Errorf("failed to update field definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("field definition not found: %w", sql.ErrNoRows)
	}
	return nil
}

// DeleteDefinition 删除定义（不触碰 field_values）
func (r *PostgresFieldDefinitionsRepository) DeleteDefinition(ctx context.Context, tenantID, id string) error {
	if tenantID == "" || id == "" {
		return fmt.Errorf("tenant_id and id are required")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM field_definitions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete field definition: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("field definition not found: %w", sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFieldDefinition(row rowScanner) (*domain.FieldDefinition, error) {
	var def domain.FieldDefinition
	var optionsJSON []byte
	err := row.Scan(
		&def.ID,
		&def.TenantID,
		&def.EntityKind,
		&def.FieldKey,
		&def.Label,
		&def.FieldType,
		&def.IsRequired,
		&def.IsVisibleInForm,
		&def.SortOrder,
		&optionsJSON,
	)
	if err != nil {
		return nil, err
	}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &def.Options); err != nil {
			return nil, fmt.Errorf("failed to unmarshal options: %w", err)
		}
	}
	return &def, nil
}
