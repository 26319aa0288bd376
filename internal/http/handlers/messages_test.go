package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"server/internal/domain"
)

func TestSendMessageIncrementsCounters(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/messages", map[string]string{"userId": "u1"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Allowed           bool `json:"allowed"`
		MessageCount      int  `json:"messageCount"`
		TodayMessageCount int  `json:"todayMessageCount"`
		Remaining         int  `json:"remaining"`
	}
	decodeJSON(t, rec, &resp)
	if !resp.Allowed || resp.MessageCount != 1 || resp.TodayMessageCount != 1 {
		t.Fatalf("send response = %+v, want counters at 1", resp)
	}
	if resp.Remaining != 9 {
		t.Fatalf("remaining = %d, want 9 on the free plan", resp.Remaining)
	}
}

func TestSendMessageFreeLimit(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	for i := 0; i < 10; i++ {
		rec := f.do(t, http.MethodPost, "/api/messages", map[string]string{"userId": "u1"}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("send %d status = %d", i+1, rec.Code)
		}
	}

	rec := f.do(t, http.MethodPost, "/api/messages", map[string]string{"userId": "u1"}, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("11th send status = %d, want 403", rec.Code)
	}
	var resp struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
		Upgrade string `json:"upgrade"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Allowed || resp.Reason != "Free plan limit reached (10 messages)" {
		t.Fatalf("limit response = %+v", resp)
	}
	if resp.Upgrade == "" {
		t.Fatalf("limit response missing upgrade hint")
	}
}

func TestSendMessageDailyReset(t *testing.T) {
	f := newFixture(t)
	yesterday := time.Now().AddDate(0, 0, -1)
	expiresAt := time.Now().AddDate(0, 0, 30)
	err := f.users.Create(context.Background(), &domain.UserProfile{
		ID: "u1", Email: "u1@example.com", Plan: domain.PlanFree,
		MessageCount: 500, TodayMessageCount: 999, MessageCountDate: yesterday,
		License: &domain.LicenseSnapshot{Key: "CLASSI-ABCDEFGH12345678", Plan: domain.PlanClassic, ExpiresAt: expiresAt},
	})
	if err != nil {
		t.Fatalf("users.Create() error: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/api/messages", map[string]string{"userId": "u1"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		MessageCount      int `json:"messageCount"`
		TodayMessageCount int `json:"todayMessageCount"`
	}
	decodeJSON(t, rec, &resp)
	if resp.TodayMessageCount != 1 {
		t.Fatalf("todayMessageCount = %d, want reset to 1 on a new day", resp.TodayMessageCount)
	}
	if resp.MessageCount != 501 {
		t.Fatalf("messageCount = %d, want 501", resp.MessageCount)
	}
}

func TestSendMessageUnknownUser(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/messages", map[string]string{"userId": "ghost"}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user status = %d, want 404", rec.Code)
	}
}

func TestUserLimits(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	rec := f.do(t, http.MethodGet, "/api/users/u1/limits", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("limits status = %d", rec.Code)
	}
	var resp struct {
		CanSend   bool   `json:"canSend"`
		Plan      string `json:"plan"`
		Limit     int    `json:"limit"`
		Current   int    `json:"current"`
		Remaining int    `json:"remaining"`
	}
	decodeJSON(t, rec, &resp)
	if !resp.CanSend || resp.Plan != "Free" || resp.Limit != 10 || resp.Remaining != 10 {
		t.Fatalf("limits = %+v", resp)
	}

	rec = f.do(t, http.MethodGet, "/api/users/ghost/limits", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user limits status = %d, want 404", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/register", map[string]string{
		"userId": "u9", "name": "Nadia", "email": "nadia@example.com",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Plan string `json:"plan"`
	}
	decodeJSON(t, rec, &resp)
	if resp.Plan != "Free" {
		t.Fatalf("register plan = %q, want Free", resp.Plan)
	}

	// The fixture gate blocks the blocked.test email domain.
	rec = f.do(t, http.MethodPost, "/api/register", map[string]string{
		"userId": "u10", "name": "X", "email": "x@blocked.test",
	}, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("blocked register status = %d, want 403", rec.Code)
	}
}
