package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"studio-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryLeadsRepository supports the lead form flow when DB is disabled.
type MemoryLeadsRepository struct {
	mu    sync.RWMutex
	leads map[string]domain.Lead // leadID -> Lead
}

func NewMemoryLeadsRepository() *MemoryLeadsRepository {
	return &MemoryLeadsRepository{leads: map[string]domain.Lead{}}
}

var _ LeadsRepository = (*MemoryLeadsRepository)(nil)

func (r *MemoryLeadsRepository) GetLead(_ context.Context, tenantID, leadID string) (*domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.leads[leadID]
	if !ok || l.TenantID != tenantID {
		return nil, fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	out := l
	return &out, nil
}

func (r *MemoryLeadsRepository) ListLeads(_ context.Context, tenantID string, filter LeadsFilter, page, size int) ([]*domain.Lead, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.Lead
	for _, l := range r.leads {
		if l.TenantID != tenantID {
			continue
		}
		if filter.StatusID != "" && (l.StatusID == nil || *l.StatusID != filter.StatusID) {
			continue
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			email := ""
			if l.Email != nil {
				email = *l.Email
			}
			if !strings.Contains(strings.ToLower(l.Name), s) && !strings.Contains(strings.ToLower(email), s) {
				continue
			}
		}
		all = append(all, l)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	out := make([]*domain.Lead, 0, end-start)
	for i := start; i < end; i++ {
		l := all[i]
		out = append(out, &l)
	}
	return out, total, nil
}

func (r *MemoryLeadsRepository) CreateLead(_ context.Context, tenantID string, lead *domain.Lead) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	leadID := lead.LeadID
	if leadID == "" {
		leadID = uuid.NewString()
	}
	stored := *lead
	stored.LeadID = leadID
	stored.TenantID = tenantID
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.leads[leadID] = stored
	return leadID, nil
}

func (r *MemoryLeadsRepository) UpdateLead(_ context.Context, tenantID, leadID string, update LeadUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[leadID]
	if !ok || l.TenantID != tenantID {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	if update.Name != nil {
		l.Name = *update.Name
	}
	if update.Email != nil {
		l.Email = update.Email
	}
	if update.Phone != nil {
		l.Phone = update.Phone
	}
	if update.Notes != nil {
		l.Notes = update.Notes
	}
	if update.StatusID != nil {
		l.StatusID = update.StatusID
	}
	l.UpdatedAt = time.Now()
	r.leads[leadID] = l
	return nil
}

func (r *MemoryLeadsRepository) DeleteLead(_ context.Context, tenantID, leadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[leadID]
	if !ok || l.TenantID != tenantID {
		return fmt.Errorf("lead not found: %w", sql.ErrNoRows)
	}
	delete(r.leads, leadID)
	return nil
}
