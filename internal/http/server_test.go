package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campanile/api/internal/attendance"
	"campanile/api/internal/config"
	"campanile/api/internal/crypto"
	"campanile/api/internal/directory"
	"campanile/api/internal/model"
	"campanile/api/internal/session"
	"campanile/api/internal/token"
)

func newTestApp(t *testing.T) (*httptest.Server, *attendance.MemorySource) {
	t.Helper()
	cfg := config.Config{
		TokenSecret: "test-secret",
		TokenIssuer: "test-issuer",
		TokenTTL:    10 * time.Minute,
		SessionTTL:  time.Hour,
	}

	accounts := directory.NewMemoryStore()
	for _, seed := range []struct {
		accountType model.AccountType
		email       string
	}{
		{model.AccountAdmin, "admin@example.local"},
		{model.AccountTeacher, "teacher@example.local"},
		{model.AccountStudent, "student@example.local"},
		{model.AccountStudent, "other@example.local"},
	} {
		hash, err := crypto.HashPassword("dev-password")
		if err != nil {
			t.Fatalf("hash error: %v", err)
		}
		accounts.Put(model.Account{
			Type:         seed.accountType,
			Email:        seed.email,
			PasswordHash: hash,
		})
	}

	sessions := session.NewManager(accounts, session.NewMemoryStore(), cfg.SessionTTL)
	tokens := token.NewManager(accounts, cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	exceptions := attendance.NewMemorySource()

	server := NewServer(cfg, sessions, tokens, exceptions)
	app := httptest.NewServer(server.Router())
	t.Cleanup(app.Close)
	return app, exceptions
}

func doJSON(t *testing.T, method, url string, body interface{}, decorate func(*http.Request)) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if decorate != nil {
		decorate(req)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	return resp
}

func login(t *testing.T, app *httptest.Server, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, app.URL+"/auth/login", map[string]string{
		"email":    email,
		"password": "dev-password",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}
	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body.SessionID == "" {
		t.Fatalf("expected session id in login response")
	}
	return body.SessionID
}

func withSession(sessionID string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionID})
	}
}

func withBearer(tokenValue string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tokenValue)
	}
}

func TestLoginAndMe(t *testing.T) {
	app, _ := newTestApp(t)

	sessionID := login(t, app, "student@example.local")
	resp := doJSON(t, http.MethodGet, app.URL+"/auth/me", nil, withSession(sessionID))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var me identitySummary
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if me.Email != "student@example.local" || me.Type != "student" {
		t.Fatalf("unexpected identity: %+v", me)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	app, _ := newTestApp(t)

	for _, body := range []map[string]string{
		{"email": "student@example.local", "password": "wrong"},
		{"email": "ghost@example.local", "password": "dev-password"},
	} {
		resp := doJSON(t, http.MethodPost, app.URL+"/auth/login", body, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	}
}

func TestTokenFlow(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, http.MethodPost, app.URL+"/auth/token", map[string]string{
		"email":    "teacher@example.local",
		"password": "dev-password",
	}, nil)
	var issued tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&issued); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	resp.Body.Close()
	if issued.Token == "" {
		t.Fatalf("expected a token")
	}

	resp = doJSON(t, http.MethodGet, app.URL+"/auth/me", nil, withBearer(issued.Token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 via bearer token, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, app.URL+"/auth/me", nil, withBearer(issued.Token+"x"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for tampered token, got %d", resp.StatusCode)
	}
}

func TestLogoutKillsSession(t *testing.T) {
	app, _ := newTestApp(t)

	sessionID := login(t, app, "student@example.local")
	resp := doJSON(t, http.MethodPost, app.URL+"/auth/logout", nil, withSession(sessionID))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, app.URL+"/auth/me", nil, withSession(sessionID))
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", resp.StatusCode)
	}
}

func TestAttendanceAuthorization(t *testing.T) {
	app, _ := newTestApp(t)

	studentSession := login(t, app, "student@example.local")
	adminSession := login(t, app, "admin@example.local")

	// Unauthenticated read.
	resp := doJSON(t, http.MethodGet, app.URL+"/student/student@example.local/attendance", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Student reads own record.
	resp = doJSON(t, http.MethodGet, app.URL+"/student/student@example.local/attendance", nil, withSession(studentSession))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for own record, got %d", resp.StatusCode)
	}

	// Student reads another student's record.
	resp = doJSON(t, http.MethodGet, app.URL+"/student/other@example.local/attendance", nil, withSession(studentSession))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for another student's record, got %d", resp.StatusCode)
	}

	// Admin reads any record.
	resp = doJSON(t, http.MethodGet, app.URL+"/student/other@example.local/attendance", nil, withSession(adminSession))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}

	// Student cannot record exceptions.
	resp = doJSON(t, http.MethodPost, app.URL+"/attendance", map[string]interface{}{
		"kind":    "absence",
		"day":     "2024-01-01",
		"student": "student@example.local",
	}, withSession(studentSession))
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for student write, got %d", resp.StatusCode)
	}
}

func TestAttendanceConsolidatedResponse(t *testing.T) {
	app, _ := newTestApp(t)

	teacherSession := login(t, app, "teacher@example.local")
	for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-04"} {
		resp := doJSON(t, http.MethodPost, app.URL+"/attendance", map[string]interface{}{
			"kind":      "absence",
			"day":       day,
			"justified": false,
			"student":   "student@example.local",
		}, withSession(teacherSession))
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 creating exception, got %d", resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, app.URL+"/student/student@example.local/attendance", nil, withSession(teacherSession))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ranges []attendanceRangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&ranges); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(ranges) != 2 {
		t.Fatalf("expected 2 consolidated ranges, got %d", len(ranges))
	}
	if ranges[0].From != "2024-01-01" || ranges[0].To != "2024-01-02" {
		t.Fatalf("unexpected first range: %+v", ranges[0])
	}
	if ranges[1].From != "2024-01-04" || ranges[1].To != "2024-01-04" {
		t.Fatalf("unexpected second range: %+v", ranges[1])
	}
	if ranges[0].Author != "teacher@example.local" {
		t.Fatalf("expected author on range, got %+v", ranges[0])
	}
}
