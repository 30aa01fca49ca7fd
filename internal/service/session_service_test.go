package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
	"studio-data/internal/store"
)

type sessionFixture struct {
	*formFixture
	sessions *SessionService
	clock    *fakeClock
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := newFormFixture(t, nil)
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	sessions := NewSessionService(store.NewMemoryKV(),
		f.defsRepo, f.valuesRepo, f.leadsRepo, f.statusesRepo,
		f.svc, time.Hour, 10*time.Second, zap.NewNop())
	sessions.now = clock.now
	return &sessionFixture{formFixture: f, sessions: sessions, clock: clock}
}

func (sf *sessionFixture) open(t *testing.T, leadID string) *SessionView {
	t.Helper()
	view, err := sf.sessions.Open(context.Background(), OpenRequest{
		TenantID: sf.tenantID, UserID: "user-1", LeadID: leadID,
	})
	require.NoError(t, err)
	return view
}

func TestOpenCreateSession(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")

	require.Equal(t, domain.FormModeCreate, view.Mode)
	require.Equal(t, domain.GuardClean, view.Guard)
	require.False(t, view.Dirty, "freshly opened session must be clean")
	require.Len(t, view.Plan.Controls, 5)
	require.Equal(t, "", view.Values["field_name"])
	require.Equal(t, false, view.Values["field_newsletter"], "checkbox defaults to false")
}

func TestOpenEditSessionPrefills(t *testing.T) {
	sf := newSessionFixture(t)
	ctx := context.Background()

	booked, err := sf.statusesRepo.GetStatusByName(ctx, sf.tenantID, "Booked")
	require.NoError(t, err)
	email := "alice@example.com"
	leadID, err := sf.leadsRepo.CreateLead(ctx, sf.tenantID, &domain.Lead{
		TenantID: sf.tenantID, Name: "Alice", Email: &email, StatusID: &booked.StatusID,
	})
	require.NoError(t, err)
	require.NoError(t, sf.valuesRepo.UpsertValues(ctx, sf.tenantID, domain.EntityKindLead, leadID,
		map[string]*string{"shoot_date": ptr("2026-09-01")}))

	view := sf.open(t, leadID)
	require.Equal(t, domain.FormModeEdit, view.Mode)
	require.False(t, view.Dirty)
	require.Equal(t, "Alice", view.Values["field_name"], "core column is the fallback")
	require.Equal(t, "alice@example.com", view.Values["field_email"])
	require.Equal(t, "Booked", view.Values["field_status"], "status prefills with its display name")
	require.Equal(t, "2026-09-01", view.Values["field_shoot_date"], "stored dynamic value wins")
}

func TestPatchValuesTracksDirty(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")
	ctx := context.Background()

	res, err := sf.sessions.PatchValues(ctx, view.SessionID, map[string]any{"field_name": "Alice"})
	require.NoError(t, err)
	require.True(t, res.Dirty)
	require.Equal(t, domain.GuardDirty, res.Guard)

	// 改回基线值恢复 clean
	res, err = sf.sessions.PatchValues(ctx, view.SessionID, map[string]any{"field_name": ""})
	require.NoError(t, err)
	require.False(t, res.Dirty)
	require.Equal(t, domain.GuardClean, res.Guard)
}

func TestPatchValuesReturnsFieldErrors(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")

	res, err := sf.sessions.PatchValues(context.Background(), view.SessionID,
		map[string]any{"field_email": "nope"})
	require.NoError(t, err)
	require.Len(t, res.FieldErrors, 1)
	require.Equal(t, "email", res.FieldErrors[0].FieldKey)
	require.True(t, res.Dirty, "invalid input still counts as an edit")
}

func TestCloseCleanSession(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")

	res, err := sf.sessions.AttemptClose(context.Background(), view.SessionID)
	require.NoError(t, err)
	require.True(t, res.Closed)

	_, err = sf.sessions.Get(context.Background(), view.SessionID)
	require.Error(t, err, "closed session is gone")
}

func TestCloseDirtySessionNeedsConfirmation(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")
	ctx := context.Background()

	_, err := sf.sessions.PatchValues(ctx, view.SessionID, map[string]any{"field_name": "Alice"})
	require.NoError(t, err)

	res, err := sf.sessions.AttemptClose(ctx, view.SessionID)
	require.NoError(t, err)
	require.False(t, res.Closed)
	require.True(t, res.Confirming)
	require.Equal(t, domain.GuardConfirmingDiscard, res.Guard)

	// stay：留在表单，回到 dirty
	res, err = sf.sessions.ResolveClose(ctx, view.SessionID, domain.GuardChoiceStay)
	require.NoError(t, err)
	require.False(t, res.Closed)
	require.Equal(t, domain.GuardDirty, res.Guard)

	// 再关一次并放弃：回滚快照后关闭
	_, err = sf.sessions.AttemptClose(ctx, view.SessionID)
	require.NoError(t, err)
	res, err = sf.sessions.ResolveClose(ctx, view.SessionID, domain.GuardChoiceDiscard)
	require.NoError(t, err)
	require.True(t, res.Closed)

	// 放弃的修改没有落库
	_, total, err := sf.leadsRepo.ListLeads(ctx, sf.tenantID, repository.LeadsFilter{}, 1, 10)
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestSaveAndExitSubmits(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")
	ctx := context.Background()

	_, err := sf.sessions.PatchValues(ctx, view.SessionID, map[string]any{"field_name": "Alice"})
	require.NoError(t, err)
	_, err = sf.sessions.AttemptClose(ctx, view.SessionID)
	require.NoError(t, err)

	res, err := sf.sessions.ResolveClose(ctx, view.SessionID, domain.GuardChoiceSaveAndExit)
	require.NoError(t, err)
	require.True(t, res.Closed)
	require.NotEmpty(t, res.LeadID)

	lead, err := sf.leadsRepo.GetLead(ctx, sf.tenantID, res.LeadID)
	require.NoError(t, err)
	require.Equal(t, "Alice", lead.Name)
}

func TestSaveAndExitFailureKeepsSessionDirty(t *testing.T) {
	sf := newSessionFixture(t)
	ctx := context.Background()

	// name 必填，保证 save_and_exit 的提交失败
	defs, err := sf.defsRepo.ListDefinitions(ctx, sf.tenantID, domain.EntityKindLead, false)
	require.NoError(t, err)
	for _, d := range defs {
		if d.FieldKey == "name" {
			d.IsRequired = true
			require.NoError(t, sf.defsRepo.UpdateDefinition(ctx, sf.tenantID, d.ID, &d))
		}
	}

	view := sf.open(t, "")
	_, err = sf.sessions.PatchValues(ctx, view.SessionID, map[string]any{"field_email": "alice@example.com"})
	require.NoError(t, err)
	_, err = sf.sessions.AttemptClose(ctx, view.SessionID)
	require.NoError(t, err)

	_, err = sf.sessions.ResolveClose(ctx, view.SessionID, domain.GuardChoiceSaveAndExit)
	require.Error(t, err)

	// 提交失败后表单保持打开、dirty，且不再处于确认态
	got, err := sf.sessions.Get(ctx, view.SessionID)
	require.NoError(t, err)
	require.Equal(t, domain.GuardDirty, got.Guard)
	require.True(t, got.Dirty)
}

func TestRefreshDefinitionsThrottled(t *testing.T) {
	sf := newSessionFixture(t)
	view := sf.open(t, "")
	ctx := context.Background()

	// 管理员新增字段
	_, err := sf.defsRepo.CreateDefinition(ctx, sf.tenantID, &domain.FieldDefinition{
		EntityKind: domain.EntityKindLead,
		FieldKey:   "referral", Label: "Referral", FieldType: domain.FieldTypeText,
		SortOrder: 9, IsVisibleInForm: true,
	})
	require.NoError(t, err)

	// 节流窗口内：返回当前定义
	res, err := sf.sessions.RefreshDefinitions(ctx, view.SessionID)
	require.NoError(t, err)
	require.True(t, res.Throttled)
	require.Len(t, res.Plan.Controls, 5)

	sf.clock.advance(11 * time.Second)
	res, err = sf.sessions.RefreshDefinitions(ctx, view.SessionID)
	require.NoError(t, err)
	require.False(t, res.Throttled)
	require.Len(t, res.Plan.Controls, 6)

	// 新字段没有基线：未编辑不脏，编辑后变脏
	got, err := sf.sessions.Get(ctx, view.SessionID)
	require.NoError(t, err)
	require.False(t, got.Dirty, "newly appeared field must not cause phantom dirt")

	patch, err := sf.sessions.PatchValues(ctx, view.SessionID, map[string]any{"field_referral": "instagram"})
	require.NoError(t, err)
	require.True(t, patch.Dirty)
}
