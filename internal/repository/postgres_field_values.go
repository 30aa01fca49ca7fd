package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// PostgresFieldValuesRepository 字段值Repository实现
type PostgresFieldValuesRepository struct {
	db *sql.DB
}

// NewPostgresFieldValuesRepository 创建字段值Repository
func NewPostgresFieldValuesRepository(db *sql.DB) *PostgresFieldValuesRepository {
	return &PostgresFieldValuesRepository{db: db}
}

var _ FieldValuesRepository = (*PostgresFieldValuesRepository)(nil)

// GetValues 获取一个实体的全部字段值
func (r *PostgresFieldValuesRepository) GetValues(ctx context.Context, tenantID, entityKind, entityID string) (map[string]*string, error) {
	if tenantID == "" || entityID == "" {
		return nil, fmt.Errorf("tenant_id and entity_id are required")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT field_key, value
		FROM field_values
		WHERE tenant_id = $1 AND entity_kind = $2 AND entity_id = $3
	`, tenantID, entityKind, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get field values: %w", err)
	}
	defer rows.Close()

	values := map[string]*string{}
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan field value: %w", err)
		}
		if value.Valid {
			v := value.String
			values[key] = &v
		} else {
			values[key] = nil
		}
	}
	return values, rows.Err()
}

// UpsertValues 批量 upsert（按 field_key 排序执行，保证确定性）
func (r *PostgresFieldValuesRepository) UpsertValues(ctx context.Context, tenantID, entityKind, entityID string, values map[string]*string) error {
	if tenantID == "" || entityID == "" {
		return fmt.Errorf("tenant_id and entity_id are required")
	}
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var value sql.NullString
		if v := values[key]; v != nil {
			value = sql.NullString{String: *v, Valid: true}
		}
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO field_values (tenant_id, entity_kind, entity_id, field_key, value)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, entity_kind, entity_id, field_key)
			DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, tenantID, entityKind, entityID, key, value)
		if err != nil {
			return fmt.Errorf("failed to upsert field value %q: %w", key, err)
		}
	}
	return nil
}

// DeleteValuesForEntity 级联删除一个实体的全部字段值
func (r *PostgresFieldValuesRepository) DeleteValuesForEntity(ctx context.Context, tenantID, entityKind, entityID string) error {
	if tenantID == "" || entityID == "" {
		return fmt.Errorf("tenant_id and entity_id are required")
	}
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM field_values
		WHERE tenant_id = $1 AND entity_kind = $2 AND entity_id = $3
	`, tenantID, entityKind, entityID)
	if err != nil {
		return fmt.Errorf("failed to delete field values: %w", err)
	}
	return nil
}
