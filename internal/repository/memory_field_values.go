package repository

import (
	"context"
	"fmt"
	"sync"
)

// MemoryFieldValuesRepository in-memory field values keyed by
// tenant/entity_kind/entity_id/field_key.
type MemoryFieldValuesRepository struct {
	mu     sync.RWMutex
	values map[string]map[string]*string // entityKey(tenant,kind,id) -> fieldKey -> value
}

func NewMemoryFieldValuesRepository() *MemoryFieldValuesRepository {
	return &MemoryFieldValuesRepository{values: map[string]map[string]*string{}}
}

var _ FieldValuesRepository = (*MemoryFieldValuesRepository)(nil)

func entityKey(tenantID, entityKind, entityID string) string {
	return tenantID + "/" + entityKind + "/" + entityID
}

func (r *MemoryFieldValuesRepository) GetValues(_ context.Context, tenantID, entityKind, entityID string) (map[string]*string, error) {
	if tenantID == "" || entityID == "" {
		return nil, fmt.Errorf("tenant_id and entity_id are required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := map[string]*string{}
	for k, v := range r.values[entityKey(tenantID, entityKind, entityID)] {
		if v != nil {
			s := *v
			out[k] = &s
		} else {
			out[k] = nil
		}
	}
	return out, nil
}

func (r *MemoryFieldValuesRepository) UpsertValues(_ context.Context, tenantID, entityKind, entityID string, values map[string]*string) error {
	if tenantID == "" || entityID == "" {
		return fmt.Errorf("tenant_id and entity_id are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := entityKey(tenantID, entityKind, entityID)
	if r.values[key] == nil {
		r.values[key] = map[string]*string{}
	}
	for k, v := range values {
		if v != nil {
			s := *v
			r.values[key][k] = &s
		} else {
			r.values[key][k] = nil
		}
	}
	return nil
}

func (r *MemoryFieldValuesRepository) DeleteValuesForEntity(_ context.Context, tenantID, entityKind, entityID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, entityKey(tenantID, entityKind, entityID))
	return nil
}
