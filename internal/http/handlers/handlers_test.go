package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/auth"
	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/license"
	"server/internal/security"
)

const testAdminPassword = "correct-horse-battery"

type fixture struct {
	app      *handlers.App
	handler  http.Handler
	licenses *repo.MemoryLicenseRepository
	users    *repo.MemoryUserRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	licenses := repo.NewMemoryLicenseRepository()
	users := repo.NewMemoryUserRepository()

	hash, err := auth.HashPassword(testAdminPassword)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}

	app := &handlers.App{
		Logger:      logger,
		Registry:    license.NewRegistry(licenses, logger, nil),
		Activator:   license.NewActivator(licenses, users, logger, nil),
		Users:       users,
		Gate:        security.NewGate(nil, nil, nil, []string{"blocked.test"}, 0, time.Hour, logger),
		Credentials: auth.NewBcryptVerifier(hash),
		Tokens:      auth.NewTokenManager("test-secret", time.Hour),
	}
	return &fixture{
		app:      app,
		handler:  httpapi.NewRouter(app, httpapi.Options{DefaultLocale: "fr"}),
		licenses: licenses,
		users:    users,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/admin/login", map[string]string{"password": testAdminPassword}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.Token
}

func (f *fixture) addUser(t *testing.T, id string) {
	t.Helper()
	err := f.users.Create(context.Background(), &domain.UserProfile{
		ID: id, Name: id, Email: id + "@example.com", Plan: domain.PlanFree, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("users.Create() error: %v", err)
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
