package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
)

type messageFixture struct {
	*formFixture
	svc           *MessageService
	templatesRepo *repository.MemoryMessageTemplatesRepository
	leadID        string
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	f := newFormFixture(t, nil)
	templatesRepo := repository.NewMemoryMessageTemplatesRepository()
	svc := NewMessageService(templatesRepo, f.leadsRepo, f.valuesRepo, f.statusesRepo, nil, zap.NewNop())

	ctx := context.Background()
	booked, err := f.statusesRepo.GetStatusByName(ctx, f.tenantID, "Booked")
	require.NoError(t, err)
	email := "alice@example.com"
	leadID, err := f.leadsRepo.CreateLead(ctx, f.tenantID, &domain.Lead{
		TenantID: f.tenantID, Name: "Alice", Email: &email, StatusID: &booked.StatusID,
	})
	require.NoError(t, err)
	require.NoError(t, f.valuesRepo.UpsertValues(ctx, f.tenantID, domain.EntityKindLead, leadID,
		map[string]*string{
			"shoot_date": ptr("2026-09-01"),
			"name":       ptr("Alice Kim"), // 动态值覆盖固定列
		}))

	return &messageFixture{formFixture: f, svc: svc, templatesRepo: templatesRepo, leadID: leadID}
}

func (mf *messageFixture) createTemplate(t *testing.T, channel domain.MessageChannel, subject, body string) string {
	t.Helper()
	id, err := mf.svc.CreateTemplate(context.Background(), SaveTemplateRequest{
		TenantID: mf.tenantID,
		Channel:  channel,
		Name:     "test template",
		Subject:  subject,
		Body:     body,
	})
	require.NoError(t, err)
	return id
}

func TestPreviewSubstitutesPlaceholders(t *testing.T) {
	mf := newMessageFixture(t)

	id := mf.createTemplate(t, domain.ChannelEmail,
		"Your {{shoot_date}} session",
		"Hi {{name}}, your booking is {{status}}. Reply to {{email}}.")

	p, err := mf.svc.PreviewTemplate(context.Background(), mf.tenantID, id, mf.leadID)
	require.NoError(t, err)
	require.Equal(t, "Your 2026-09-01 session", p.Subject)
	require.Equal(t, "Hi Alice Kim, your booking is Booked. Reply to alice@example.com.", p.Body,
		"dynamic value wins over the core column; status renders its display name")
	require.Empty(t, p.MissingKeys)
}

func TestPreviewRecordsMissingKeys(t *testing.T) {
	mf := newMessageFixture(t)

	id := mf.createTemplate(t, domain.ChannelWhatsApp, "",
		"Hi {{name}}, see you at {{venue}}!")

	p, err := mf.svc.PreviewTemplate(context.Background(), mf.tenantID, id, mf.leadID)
	require.NoError(t, err)
	require.Equal(t, "Hi Alice Kim, see you at !", p.Body, "unresolved keys render empty")
	require.Equal(t, []string{"venue"}, p.MissingKeys)
	require.Empty(t, p.Subject, "subject only applies to email")
}

func TestPreviewCountsSMSSegments(t *testing.T) {
	mf := newMessageFixture(t)

	short := mf.createTemplate(t, domain.ChannelSMS, "", "Hi {{name}}!")
	p, err := mf.svc.PreviewTemplate(context.Background(), mf.tenantID, short, mf.leadID)
	require.NoError(t, err)
	require.Equal(t, 1, p.SMSSegments)

	long := mf.createTemplate(t, domain.ChannelSMS, "", strings.Repeat("x", 320))
	p, err = mf.svc.PreviewTemplate(context.Background(), mf.tenantID, long, mf.leadID)
	require.NoError(t, err)
	require.Equal(t, 3, p.SMSSegments, "320 chars = ceil(320/153) segments")
}

func TestSendTestRequiresGateway(t *testing.T) {
	mf := newMessageFixture(t)
	id := mf.createTemplate(t, domain.ChannelSMS, "", "Hi {{name}}")

	err := mf.svc.SendTest(context.Background(), mf.tenantID, id, mf.leadID, "+15550001111")
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestCreateTemplateRejectsUnknownChannel(t *testing.T) {
	mf := newMessageFixture(t)
	_, err := mf.svc.CreateTemplate(context.Background(), SaveTemplateRequest{
		TenantID: mf.tenantID,
		Channel:  "carrier_pigeon",
		Name:     "t",
		Body:     "b",
	})
	require.Error(t, err)
}
