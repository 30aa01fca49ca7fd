package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

type formFixture struct {
	svc          *FormService
	leadsRepo    *repository.MemoryLeadsRepository
	statusesRepo *repository.MemoryLeadStatusesRepository
	defsRepo     *repository.MemoryFieldDefinitionsRepository
	valuesRepo   repository.FieldValuesRepository
	notifier     *CaptureNotifier
	tenantID     string
}

func newFormFixture(t *testing.T, valuesRepo repository.FieldValuesRepository) *formFixture {
	t.Helper()

	f := &formFixture{
		leadsRepo:    repository.NewMemoryLeadsRepository(),
		statusesRepo: repository.NewMemoryLeadStatusesRepository(),
		defsRepo:     repository.NewMemoryFieldDefinitionsRepository(),
		valuesRepo:   valuesRepo,
		notifier:     &CaptureNotifier{},
		tenantID:     "tenant-1",
	}
	if f.valuesRepo == nil {
		f.valuesRepo = repository.NewMemoryFieldValuesRepository()
	}
	f.svc = NewFormService(f.leadsRepo, f.statusesRepo, f.defsRepo, f.valuesRepo,
		f.notifier, NewDefaultTranslator(), zap.NewNop())

	ctx := context.Background()
	_, err := f.statusesRepo.CreateStatus(ctx, f.tenantID, &domain.LeadStatus{
		StatusName: "New", SortOrder: 0, IsDefault: true,
	})
	require.NoError(t, err)
	_, err = f.statusesRepo.CreateStatus(ctx, f.tenantID, &domain.LeadStatus{
		StatusName: "Booked", SortOrder: 1,
	})
	require.NoError(t, err)

	defs := []domain.FieldDefinition{
		{FieldKey: "name", Label: "Name", FieldType: domain.FieldTypeText, SortOrder: 0, IsVisibleInForm: true},
		{FieldKey: "email", Label: "Email", FieldType: domain.FieldTypeEmail, SortOrder: 1, IsVisibleInForm: true},
		{FieldKey: "status", Label: "Status", FieldType: domain.FieldTypeSelect, SortOrder: 2, IsVisibleInForm: true,
			Options: domain.FieldOptions{Options: []string{"New", "Booked"}}},
		{FieldKey: "shoot_date", Label: "Shoot date", FieldType: domain.FieldTypeDate, SortOrder: 3, IsVisibleInForm: true},
		{FieldKey: "newsletter", Label: "Newsletter", FieldType: domain.FieldTypeCheckbox, SortOrder: 4, IsVisibleInForm: true},
	}
	for i := range defs {
		defs[i].EntityKind = domain.EntityKindLead
		_, err := f.defsRepo.CreateDefinition(ctx, f.tenantID, &defs[i])
		require.NoError(t, err)
	}
	return f
}

func TestSubmitCreateUsesDefaults(t *testing.T) {
	f := newFormFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, SubmitRequest{
		TenantID: f.tenantID,
		UserID:   "user-1",
		Mode:     domain.FormModeCreate,
		Values: map[string]any{
			"field_name":       "",
			"field_email":      "alice@example.com",
			"field_newsletter": true,
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.LeadID)

	lead, err := f.leadsRepo.GetLead(ctx, f.tenantID, res.LeadID)
	require.NoError(t, err)
	require.Equal(t, "New Lead", lead.Name, "empty name falls back to placeholder")
	require.NotNil(t, lead.StatusID)

	def, err := f.statusesRepo.GetDefaultStatus(ctx, f.tenantID)
	require.NoError(t, err)
	require.Equal(t, def.StatusID, *lead.StatusID, "create without status uses the default")

	values, err := f.valuesRepo.GetValues(ctx, f.tenantID, domain.EntityKindLead, res.LeadID)
	require.NoError(t, err)
	require.NotContains(t, values, "name", "nil-serialized values are skipped in create mode")
	require.Equal(t, "alice@example.com", *values["email"])
	require.Equal(t, "true", *values["newsletter"])

	require.Len(t, f.notifier.Notes, 1)
	require.Equal(t, VariantSuccess, f.notifier.Notes[0].Variant)
}

func TestSubmitEditKeepsNameAndClearsFields(t *testing.T) {
	f := newFormFixture(t, nil)
	ctx := context.Background()

	email := "alice@example.com"
	leadID, err := f.leadsRepo.CreateLead(ctx, f.tenantID, &domain.Lead{
		TenantID: f.tenantID, Name: "Alice", Email: &email,
	})
	require.NoError(t, err)
	require.NoError(t, f.valuesRepo.UpsertValues(ctx, f.tenantID, domain.EntityKindLead, leadID,
		map[string]*string{"shoot_date": ptr("2026-09-01")}))

	_, err = f.svc.Submit(ctx, SubmitRequest{
		TenantID: f.tenantID,
		UserID:   "user-1",
		Mode:     domain.FormModeEdit,
		LeadID:   leadID,
		Values: map[string]any{
			"field_name":       "",
			"field_status":     "Booked",
			"field_shoot_date": "",
		},
	})
	require.NoError(t, err)

	lead, err := f.leadsRepo.GetLead(ctx, f.tenantID, leadID)
	require.NoError(t, err)
	require.Equal(t, "Alice", lead.Name, "edit must never blank the name column")

	booked, err := f.statusesRepo.GetStatusByName(ctx, f.tenantID, "Booked")
	require.NoError(t, err)
	require.Equal(t, booked.StatusID, *lead.StatusID, "status resolved by display name")

	values, err := f.valuesRepo.GetValues(ctx, f.tenantID, domain.EntityKindLead, leadID)
	require.NoError(t, err)
	require.Contains(t, values, "shoot_date")
	require.Nil(t, values["shoot_date"], "cleared field is stored as null in edit mode")
	require.Equal(t, "Booked", *values["status"])
}

func TestSubmitValidationBlocksAllWrites(t *testing.T) {
	f := newFormFixture(t, nil)
	ctx := context.Background()

	// name 必填 + email 格式同时失败
	defs, err := f.defsRepo.ListDefinitions(ctx, f.tenantID, domain.EntityKindLead, false)
	require.NoError(t, err)
	for _, d := range defs {
		if d.FieldKey == "name" {
			d.IsRequired = true
			require.NoError(t, f.defsRepo.UpdateDefinition(ctx, f.tenantID, d.ID, &d))
		}
	}

	_, err = f.svc.Submit(ctx, SubmitRequest{
		TenantID: f.tenantID,
		UserID:   "user-1",
		Mode:     domain.FormModeCreate,
		Values: map[string]any{
			"field_name":  "",
			"field_email": "not-an-email",
		},
	})
	ve, ok := AsValidationError(err)
	require.True(t, ok, "expected ValidationError, got %v", err)
	require.Len(t, ve.Fields, 2)

	_, total, err := f.leadsRepo.ListLeads(ctx, f.tenantID, repository.LeadsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Zero(t, total, "validation failure must precede any write")
	require.Empty(t, f.notifier.Notes, "validation errors are inline, not toasts")
}

func TestSubmitMissingContextAborts(t *testing.T) {
	f := newFormFixture(t, nil)

	_, err := f.svc.Submit(context.Background(), SubmitRequest{
		TenantID: "",
		UserID:   "user-1",
		Mode:     domain.FormModeCreate,
		Values:   map[string]any{"field_name": "Alice"},
	})
	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	require.Len(t, f.notifier.Notes, 1)
	require.Equal(t, VariantDestructive, f.notifier.Notes[0].Variant)
}

// failingValuesRepo 让 upsert 失败，模拟部分写场景
type failingValuesRepo struct {
	repository.FieldValuesRepository
}

func (f *failingValuesRepo) UpsertValues(context.Context, string, string, string, map[string]*string) error {
	return fmt.Errorf("connection reset")
}

func TestSubmitPartialWriteIsNotRolledBack(t *testing.T) {
	f := newFormFixture(t, &failingValuesRepo{repository.NewMemoryFieldValuesRepository()})
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitRequest{
		TenantID: f.tenantID,
		UserID:   "user-1",
		Mode:     domain.FormModeCreate,
		Values: map[string]any{
			"field_name":  "Alice",
			"field_email": "alice@example.com",
		},
	})
	var we *BackendWriteError
	require.True(t, errors.As(err, &we))
	require.Equal(t, "upsert_values", we.Op)

	// 固定列已写入且保留（没有补偿回滚）
	_, total, err := f.leadsRepo.ListLeads(ctx, f.tenantID, repository.LeadsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 1, total)

	require.Len(t, f.notifier.Notes, 1)
	require.Equal(t, VariantDestructive, f.notifier.Notes[0].Variant)
}

func TestSubmitUnknownStatusNameAborts(t *testing.T) {
	f := newFormFixture(t, nil)
	ctx := context.Background()

	leadID, err := f.leadsRepo.CreateLead(ctx, f.tenantID, &domain.Lead{TenantID: f.tenantID, Name: "Alice"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitRequest{
		TenantID: f.tenantID,
		UserID:   "user-1",
		Mode:     domain.FormModeEdit,
		LeadID:   leadID,
		Values:   map[string]any{"field_status": "Renamed Since"},
	})
	var we *BackendWriteError
	require.True(t, errors.As(err, &we))
	require.Equal(t, "resolve_status", we.Op)

	lead, err := f.leadsRepo.GetLead(ctx, f.tenantID, leadID)
	require.NoError(t, err)
	require.Nil(t, lead.StatusID, "failed status lookup must not update the lead")
}

func ptr(s string) *string { return &s }
