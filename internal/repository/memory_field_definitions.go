package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"studio-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryFieldDefinitionsRepository supports the admin field-definition pages
// and form sessions when DB is disabled.
type MemoryFieldDefinitionsRepository struct {
	mu   sync.RWMutex
	defs map[string]domain.FieldDefinition // id -> definition
}

func NewMemoryFieldDefinitionsRepository() *MemoryFieldDefinitionsRepository {
	return &MemoryFieldDefinitionsRepository{defs: map[string]domain.FieldDefinition{}}
}

var _ FieldDefinitionsRepository = (*MemoryFieldDefinitionsRepository)(nil)

func (r *MemoryFieldDefinitionsRepository) ListDefinitions(_ context.Context, tenantID, entityKind string, visibleOnly bool) ([]domain.FieldDefinition, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.FieldDefinition
	for _, d := range r.defs {
		if d.TenantID != tenantID || d.EntityKind != entityKind {
			continue
		}
		if visibleOnly && !d.IsVisibleInForm {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].FieldKey < out[j].FieldKey
	})
	return out, nil
}

func (r *MemoryFieldDefinitionsRepository) GetDefinition(_ context.Context, tenantID, id string) (*domain.FieldDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	if !ok || d.TenantID != tenantID {
		return nil, fmt.Errorf("field definition not found: %w", sql.ErrNoRows)
	}
	out := d
	return &out, nil
}

func (r *MemoryFieldDefinitionsRepository) CreateDefinition(_ context.Context, tenantID string, def *domain.FieldDefinition) (string, error) {
	if tenantID == "" || def.FieldKey == "" {
		return "", fmt.Errorf("tenant_id and field_key are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.defs {
		if d.TenantID == tenantID && d.EntityKind == def.EntityKind && d.FieldKey == def.FieldKey {
			return "", fmt.Errorf("field_key %q: %w", def.FieldKey, ErrDuplicateFieldKey)
		}
	}

	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	stored := *def
	stored.ID = id
	stored.TenantID = tenantID
	r.defs[id] = stored
	return id, nil
}

func (r *MemoryFieldDefinitionsRepository) UpdateDefinition(_ context.Context, tenantID, id string, def *domain.FieldDefinition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.defs[id]
	if !ok || existing.TenantID != tenantID {
		return fmt.Errorf("field definition not found: %w", sql.ErrNoRows)
	}
	// field_key is immutable
	existing.Label = def.Label
	existing.FieldType = def.FieldType
	existing.IsRequired = def.IsRequired
	existing.IsVisibleInForm = def.IsVisibleInForm
	existing.SortOrder = def.SortOrder
	existing.Options = def.Options
	r.defs[id] = existing
	return nil
}

func (r *MemoryFieldDefinitionsRepository) DeleteDefinition(_ context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[id]
	if !ok || d.TenantID != tenantID {
		return fmt.Errorf("field definition not found: %w", sql.ErrNoRows)
	}
	delete(r.defs, id)
	return nil
}
