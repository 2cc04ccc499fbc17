package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/civic-intake/internal/api/http/handlers"
	"github.com/spec-kit/civic-intake/internal/auth"
	"github.com/spec-kit/civic-intake/internal/config"
	"github.com/spec-kit/civic-intake/internal/observability"
	"github.com/spec-kit/civic-intake/internal/repository"
	"github.com/spec-kit/civic-intake/internal/service"
)

const (
	adminEmail    = "admin@city.example"
	adminPassword = "admin-password"
	webhookSecret = "hook-secret"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	users := repository.NewMemoryUserRepository()

	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo: repository.NewMemoryIssueRepository(),
		Metrics:   metrics,
		Logger:    logger,
	})
	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, service.AuthDependencies{
		UserRepo: users,
		Logger:   logger,
	})
	if err := authService.EnsureAdmin(t.Context(), adminEmail, adminPassword); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("civic-intake", "test", issueService, nil, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(issueService),
		SMS:            handlers.NewSMSHandler(issueService, webhookSecret, logger),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	payload := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode %s: %v (%s)", req.URL.Path, err, raw)
		}
	}
	return resp.StatusCode, payload
}

func dataOf(t *testing.T, payload map[string]any) map[string]any {
	t.Helper()
	data, ok := payload["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data in %v", payload)
	}
	return data
}

func errorCode(payload map[string]any) string {
	errObj, _ := payload["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func login(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	status, payload := doJSON(t, app, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login %s: %d %v", email, status, payload)
	}
	authData := dataOf(t, payload)["auth"].(map[string]any)
	return authData["token"].(string)
}

func TestSubmitAndMergeOverHTTP(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodPost, "/issues", "", map[string]any{
		"text": "pothole on main street sector 5", "email": "userA@x.com", "category": "Roads & Transport",
	})
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, payload)
	}
	first := dataOf(t, payload)["issue"].(map[string]any)
	ticket := first["ticketId"].(string)
	if _, leaked := first["users"]; leaked {
		t.Fatalf("public response must not expose reporters")
	}

	status, payload = doJSON(t, app, http.MethodPost, "/issues", "", map[string]any{
		"text": "big pothole main street sector 5", "email": "userB@x.com", "category": "Roads & Transport",
	})
	if status != http.StatusOK {
		t.Fatalf("expected 200 for merge, got %d %v", status, payload)
	}
	data := dataOf(t, payload)
	merged := data["issue"].(map[string]any)
	if merged["ticketId"] != ticket || merged["issueCount"].(float64) != 2 || data["created"] != false {
		t.Fatalf("unexpected merge response %v", data)
	}

	status, payload = doJSON(t, app, http.MethodGet, "/issues/"+ticket, "", nil)
	if status != http.StatusOK || dataOf(t, payload)["ticketId"] != ticket {
		t.Fatalf("lookup failed: %d %v", status, payload)
	}

	status, payload = doJSON(t, app, http.MethodPost, "/issues", "", map[string]any{"text": "no reporter"})
	if status != http.StatusBadRequest || errorCode(payload) != "VALIDATION_FAILED" {
		t.Fatalf("expected validation error, got %d %v", status, payload)
	}
}

func TestStaffWorkflowOverHTTP(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	_, payload := doJSON(t, app, http.MethodPost, "/issues", "", map[string]any{
		"text": "Garbage not collected in Sector 9", "email": "citizen@x.com",
	})
	ticket := dataOf(t, payload)["issue"].(map[string]any)["ticketId"].(string)

	status, _ := doJSON(t, app, http.MethodGet, "/issues", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("listing requires auth, got %d", status)
	}

	status, payload = doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Citizen", "email": "citizen@x.com", "password": "citizen-pass", "role": "admin",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: %d %v", status, payload)
	}
	if role := dataOf(t, payload)["user"].(map[string]any)["role"]; role != "citizen" {
		t.Fatalf("self-registration must create citizens, got %v", role)
	}
	citizenToken := login(t, app, "citizen@x.com", "citizen-pass")
	adminToken := login(t, app, adminEmail, adminPassword)

	status, _ = doJSON(t, app, http.MethodPatch, "/issues/"+ticket+"/status", citizenToken, map[string]string{"status": "in_progress"})
	if status != http.StatusForbidden {
		t.Fatalf("citizen must not change status, got %d", status)
	}

	status, payload = doJSON(t, app, http.MethodPatch, "/issues/"+ticket+"/status", adminToken, map[string]string{"status": "completed"})
	if status != http.StatusBadRequest {
		t.Fatalf("direct completion must be rejected, got %d %v", status, payload)
	}

	status, payload = doJSON(t, app, http.MethodPatch, "/issues/"+ticket+"/status", adminToken, map[string]string{"status": "in progress"})
	if status != http.StatusOK || dataOf(t, payload)["status"] != "in_progress" {
		t.Fatalf("status update failed: %d %v", status, payload)
	}

	status, _ = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", citizenToken, map[string]string{"completionType": "user"})
	if status != http.StatusBadRequest {
		t.Fatalf("user completion before admin must fail, got %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", citizenToken, map[string]string{"completionType": "admin"})
	if status != http.StatusForbidden {
		t.Fatalf("citizen admin completion must be forbidden, got %d", status)
	}
	status, _ = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", adminToken, map[string]string{"completionType": "admin"})
	if status != http.StatusOK {
		t.Fatalf("admin completion failed: %d", status)
	}
	status, payload = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", citizenToken, map[string]string{"completionType": "user"})
	if status != http.StatusOK || dataOf(t, payload)["status"] != "completed" {
		t.Fatalf("user completion failed: %d %v", status, payload)
	}

	status, payload = doJSON(t, app, http.MethodGet, "/issues?status=completed", adminToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d %v", status, payload)
	}
	items := payload["data"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["completedAt"] == "" {
		t.Fatalf("unexpected listing %v", items)
	}

	status, payload = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/photo", adminToken, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("photo without file must fail validation, got %d %v", status, payload)
	}
}

func TestUserSignOffOverHTTP(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)
	adminToken := login(t, app, adminEmail, adminPassword)

	_, payload := doJSON(t, app, http.MethodPost, "/issues", "", map[string]any{
		"text": "Broken water pipe flooding the road near the clinic", "email": "reporter@x.com",
	})
	ticket := dataOf(t, payload)["issue"].(map[string]any)["ticketId"].(string)

	status, payload := doJSON(t, app, http.MethodPost, "/auth/register", "", map[string]any{
		"name": "Stranger", "email": "stranger@x.com", "password": "stranger-pass",
	})
	if status != http.StatusCreated {
		t.Fatalf("register: %d %v", status, payload)
	}
	strangerToken := login(t, app, "stranger@x.com", "stranger-pass")

	status, _ = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", adminToken, map[string]string{"completionType": "admin"})
	if status != http.StatusOK {
		t.Fatalf("admin completion failed: %d", status)
	}

	status, payload = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", strangerToken, map[string]string{"completionType": "user"})
	if status != http.StatusForbidden || errorCode(payload) != "FORBIDDEN" {
		t.Fatalf("non-reporter sign-off must be forbidden, got %d %v", status, payload)
	}
	status, payload = doJSON(t, app, http.MethodPost, "/issues/"+ticket+"/completion", adminToken, map[string]string{"completionType": "user"})
	if status != http.StatusForbidden {
		t.Fatalf("admin must not give both marks, got %d %v", status, payload)
	}

	status, payload = doJSON(t, app, http.MethodGet, "/issues/"+ticket, "", nil)
	if status != http.StatusOK || dataOf(t, payload)["status"] != "admin_completed" {
		t.Fatalf("issue must still await the reporter, got %d %v", status, payload)
	}
}

func TestSMSWebhook(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	form := url.Values{"from_number": {"+919812345678"}, "content": {"  Streetlight broken near market  "}, "id": {"SM1"}}
	req := httptest.NewRequest(http.MethodPost, "/sms/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, payload := send(t, app, req)
	if status != http.StatusForbidden {
		t.Fatalf("missing secret must be rejected, got %d %v", status, payload)
	}

	form.Set("secret", webhookSecret)
	req = httptest.NewRequest(http.MethodPost, "/sms/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	status, payload = send(t, app, req)
	if status != http.StatusOK {
		t.Fatalf("webhook: %d %v", status, payload)
	}
	data := dataOf(t, payload)
	if data["kind"] != "submitted" || data["created"] != true {
		t.Fatalf("unexpected outcome %v", data)
	}

	req = httptest.NewRequest(http.MethodPost, "/sms/webhook", strings.NewReader(`{"from":"+919812345678","message":"YES"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telerivet-Secret", webhookSecret)
	status, payload = send(t, app, req)
	if status != http.StatusOK || dataOf(t, payload)["kind"] != "confirmed" {
		t.Fatalf("confirmation: %d %v", status, payload)
	}

	req = httptest.NewRequest(http.MethodPost, "/sms/webhook", strings.NewReader(`{"from_number":919812345678,"content":"TKT-01012025-ABCDEF12"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Telerivet-Secret", webhookSecret)
	status, payload = send(t, app, req)
	if status != http.StatusOK {
		t.Fatalf("unknown ticket lookup must be acknowledged, got %d %v", status, payload)
	}
	data = dataOf(t, payload)
	if data["kind"] != "lookup_not_found" || data["ticketId"] != "TKT-01012025-ABCDEF12" {
		t.Fatalf("unexpected lookup outcome %v", data)
	}
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	t.Parallel()
	app := newTestApp(t)

	status, payload := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	if status != http.StatusOK || payload["status"] != "ready" {
		t.Fatalf("ready: %d %v", status, payload)
	}
	status, _ = doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	if status != http.StatusOK {
		t.Fatalf("live: %d", status)
	}
	status, payload = doJSON(t, app, http.MethodGet, "/nowhere", "", nil)
	if status != http.StatusNotFound || errorCode(payload) != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %v", status, payload)
	}
	status, payload = doJSON(t, app, http.MethodGet, "/health/metrics", "", nil)
	if status != http.StatusOK {
		t.Fatalf("metrics: %d %v", status, payload)
	}
	if _, ok := dataOf(t, payload)["requests"]; !ok {
		t.Fatalf("expected request counters, got %v", payload)
	}
}
