package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"studio-data/internal/domain"
	"studio-data/internal/repository"
	"studio-data/internal/service"
	"studio-data/internal/store"
)

const testTenantID = "00000000-0000-0000-0000-000000000111"

func newTestRouter(t *testing.T) *Router {
	router, _ := newTestRouterWithLeads(t)
	return router
}

func newTestRouterWithLeads(t *testing.T) (*Router, repository.LeadsRepository) {
	t.Helper()
	logger := zap.NewNop()

	defsRepo := repository.NewMemoryFieldDefinitionsRepository()
	valuesRepo := repository.NewMemoryFieldValuesRepository()
	leadsRepo := repository.NewMemoryLeadsRepository()
	statusesRepo := repository.NewMemoryLeadStatusesRepository()

	ctx := context.Background()
	if _, err := statusesRepo.CreateStatus(ctx, testTenantID, &domain.LeadStatus{
		StatusName: "New", IsDefault: true,
	}); err != nil {
		t.Fatalf("seed status: %v", err)
	}
	defs := []domain.FieldDefinition{
		{FieldKey: "name", Label: "Name", FieldType: domain.FieldTypeText, SortOrder: 0, IsVisibleInForm: true},
		{FieldKey: "email", Label: "Email", FieldType: domain.FieldTypeEmail, SortOrder: 1, IsVisibleInForm: true},
	}
	for i := range defs {
		defs[i].EntityKind = domain.EntityKindLead
		if _, err := defsRepo.CreateDefinition(ctx, testTenantID, &defs[i]); err != nil {
			t.Fatalf("seed definition: %v", err)
		}
	}

	translator := service.NewDefaultTranslator()
	notifier := service.NewLogNotifier(logger)
	formService := service.NewFormService(leadsRepo, statusesRepo, defsRepo, valuesRepo, notifier, translator, logger)
	sessionService := service.NewSessionService(store.NewMemoryKV(),
		defsRepo, valuesRepo, leadsRepo, statusesRepo, formService,
		time.Hour, 10*time.Second, logger)

	router := NewRouter(logger)
	router.RegisterFormRoutes(NewFormSessionHandler(sessionService, logger))
	return router, leadsRepo
}

func doJSON(t *testing.T, router *Router, method, path string, body any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Tenant-Id", testTenantID)
	req.Header.Set("X-User-Id", "user-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("%s %s: status %d", method, path, rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func resultOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	if code, _ := resp["code"].(float64); code != ResultSuccess {
		t.Fatalf("request failed: %v", resp["message"])
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("unexpected result shape: %v", resp["result"])
	}
	return result
}

func TestFormSessionLifecycle(t *testing.T) {
	router := newTestRouter(t)

	// 打开 create 会话
	opened := resultOf(t, doJSON(t, router, http.MethodPost, leadSessionsPath, map[string]any{}))
	sessionID, _ := opened["session_id"].(string)
	if sessionID == "" {
		t.Fatal("missing session_id")
	}
	if opened["guard"] != "clean" {
		t.Fatalf("new session guard = %v", opened["guard"])
	}

	// 编辑 → dirty
	patched := resultOf(t, doJSON(t, router, http.MethodPatch,
		sessionsPrefix+sessionID+"/values",
		map[string]any{"changes": map[string]any{"field_name": "Alice"}}))
	if patched["dirty"] != true || patched["guard"] != "dirty" {
		t.Fatalf("patch result: %v", patched)
	}

	// 关闭请求进确认态
	closeRes := resultOf(t, doJSON(t, router, http.MethodPost,
		sessionsPrefix+sessionID+"/close", nil))
	if closeRes["confirming"] != true {
		t.Fatalf("dirty close should confirm: %v", closeRes)
	}

	// save_and_exit：提交并关闭
	resolved := resultOf(t, doJSON(t, router, http.MethodPost,
		sessionsPrefix+sessionID+"/close/resolve",
		map[string]any{"choice": "save_and_exit"}))
	if resolved["closed"] != true {
		t.Fatalf("save_and_exit should close: %v", resolved)
	}
	if leadID, _ := resolved["lead_id"].(string); leadID == "" {
		t.Fatal("missing lead_id after submit")
	}

	// 关闭后的会话不可再访问
	gone := doJSON(t, router, http.MethodGet, sessionsPrefix+sessionID, nil)
	if code, _ := gone["code"].(float64); code != ResultError {
		t.Fatalf("closed session should 404 logically: %v", gone)
	}
}

func TestOpenEditSessionByPath(t *testing.T) {
	router, leadsRepo := newTestRouterWithLeads(t)

	email := "alice@example.com"
	leadID, err := leadsRepo.CreateLead(context.Background(), testTenantID, &domain.Lead{
		TenantID: testTenantID,
		Name:     "Alice",
		Email:    &email,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}

	opened := resultOf(t, doJSON(t, router, http.MethodPost,
		"/form/api/v1/leads/"+leadID+"/sessions", nil))
	if opened["mode"] != "edit" {
		t.Fatalf("mode = %v, want edit", opened["mode"])
	}
	if opened["guard"] != "clean" {
		t.Fatalf("guard = %v, want clean", opened["guard"])
	}
	values, _ := opened["values"].(map[string]any)
	if values["field_name"] != "Alice" {
		t.Fatalf("field_name = %v", values["field_name"])
	}
	if values["field_email"] != email {
		t.Fatalf("field_email = %v", values["field_email"])
	}
}

func TestSubmitValidationErrorPayload(t *testing.T) {
	router := newTestRouter(t)

	opened := resultOf(t, doJSON(t, router, http.MethodPost, leadSessionsPath, map[string]any{}))
	sessionID := opened["session_id"].(string)

	resultOf(t, doJSON(t, router, http.MethodPatch,
		sessionsPrefix+sessionID+"/values",
		map[string]any{"changes": map[string]any{"field_email": "not-an-email"}}))

	resp := doJSON(t, router, http.MethodPost, sessionsPrefix+sessionID+"/submit", nil)
	if code, _ := resp["code"].(float64); code != ResultError {
		t.Fatalf("invalid submit should fail: %v", resp)
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("validation failure should carry field errors: %v", resp)
	}
	fieldErrs, ok := result["field_errors"].([]any)
	if !ok || len(fieldErrs) != 1 {
		t.Fatalf("expected 1 field error, got %v", result)
	}
}

func TestMissingTenantRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, leadSessionsPath, bytes.NewBufferString("{}"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if code, _ := out["code"].(float64); code != ResultError {
		t.Fatalf("missing tenant should fail: %v", out)
	}
}
