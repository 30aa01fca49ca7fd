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

// MemoryLeadStatusesRepository in-memory lead statuses.
type MemoryLeadStatusesRepository struct {
	mu       sync.RWMutex
	statuses map[string]domain.LeadStatus // statusID -> status
}

func NewMemoryLeadStatusesRepository() *MemoryLeadStatusesRepository {
	return &MemoryLeadStatusesRepository{statuses: map[string]domain.LeadStatus{}}
}

var _ LeadStatusesRepository = (*MemoryLeadStatusesRepository)(nil)

func (r *MemoryLeadStatusesRepository) ListStatuses(_ context.Context, tenantID string) ([]domain.LeadStatus, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.LeadStatus
	for _, s := range r.statuses {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].StatusName < out[j].StatusName
	})
	return out, nil
}

func (r *MemoryLeadStatusesRepository) GetDefaultStatus(ctx context.Context, tenantID string) (*domain.LeadStatus, error) {
	statuses, err := r.ListStatuses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return nil, fmt.Errorf("no lead status configured: %w", sql.ErrNoRows)
	}
	for _, s := range statuses {
		if s.IsDefault {
			out := s
			return &out, nil
		}
	}
	out := statuses[0]
	return &out, nil
}

func (r *MemoryLeadStatusesRepository) GetStatusByName(ctx context.Context, tenantID, statusName string) (*domain.LeadStatus, error) {
	statuses, err := r.ListStatuses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	// display-name equality, first match in sort order
	for _, s := range statuses {
		if s.StatusName == statusName {
			out := s
			return &out, nil
		}
	}
	return nil, fmt.Errorf("lead status not found: %w", sql.ErrNoRows)
}

func (r *MemoryLeadStatusesRepository) CreateStatus(_ context.Context, tenantID string, status *domain.LeadStatus) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	statusID := status.StatusID
	if statusID == "" {
		statusID = uuid.NewString()
	}
	stored := *status
	stored.StatusID = statusID
	stored.TenantID = tenantID
	r.statuses[statusID] = stored
	return statusID, nil
}
