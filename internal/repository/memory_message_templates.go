package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"studio-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryMessageTemplatesRepository in-memory message templates.
type MemoryMessageTemplatesRepository struct {
	mu        sync.RWMutex
	templates map[string]domain.MessageTemplate // templateID -> template
}

func NewMemoryMessageTemplatesRepository() *MemoryMessageTemplatesRepository {
	return &MemoryMessageTemplatesRepository{templates: map[string]domain.MessageTemplate{}}
}

var _ MessageTemplatesRepository = (*MemoryMessageTemplatesRepository)(nil)

func (r *MemoryMessageTemplatesRepository) GetTemplate(_ context.Context, tenantID, templateID string) (*domain.MessageTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[templateID]
	if !ok || t.TenantID != tenantID {
		return nil, fmt.Errorf("message template not found: %w", sql.ErrNoRows)
	}
	out := t
	return &out, nil
}

func (r *MemoryMessageTemplatesRepository) ListTemplates(_ context.Context, tenantID string, channel domain.MessageChannel, page, size int) ([]*domain.MessageTemplate, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []domain.MessageTemplate
	for _, t := range r.templates {
		if t.TenantID != tenantID {
			continue
		}
		if channel != "" && t.Channel != channel {
			continue
		}
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Channel != all[j].Channel {
			return all[i].Channel < all[j].Channel
		}
		return all[i].Name < all[j].Name
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

	out := make([]*domain.MessageTemplate, 0, end-start)
	for i := start; i < end; i++ {
		t := all[i]
		out = append(out, &t)
	}
	return out, total, nil
}

func (r *MemoryMessageTemplatesRepository) CreateTemplate(_ context.Context, tenantID string, tpl *domain.MessageTemplate) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if !tpl.Channel.IsValid() {
		return "", fmt.Errorf("invalid channel: %s", tpl.Channel)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	templateID := tpl.TemplateID
	if templateID == "" {
		templateID = uuid.NewString()
	}
	stored := *tpl
	stored.TemplateID = templateID
	stored.TenantID = tenantID
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.templates[templateID] = stored
	return templateID, nil
}

func (r *MemoryMessageTemplatesRepository) UpdateTemplate(_ context.Context, tenantID, templateID string, tpl *domain.MessageTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.templates[templateID]
	if !ok || existing.TenantID != tenantID {
		return fmt.Errorf("message template not found: %w", sql.ErrNoRows)
	}
	existing.Channel = tpl.Channel
	existing.Name = tpl.Name
	existing.Subject = tpl.Subject
	existing.Body = tpl.Body
	existing.UpdatedAt = time.Now()
	r.templates[templateID] = existing
	return nil
}

func (r *MemoryMessageTemplatesRepository) DeleteTemplate(_ context.Context, tenantID, templateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.templates[templateID]
	if !ok || t.TenantID != tenantID {
		return fmt.Errorf("message template not found: %w", sql.ErrNoRows)
	}
	delete(r.templates, templateID)
	return nil
}
