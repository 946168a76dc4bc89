package handler_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestSignup_SetsCookieAndGrantsBonus(t *testing.T) {
	env := newTestEnv(t, passingEngine())

	resp := env.postJSON(t, "/api/auth/signup", map[string]string{
		"name":     "New User",
		"email":    "new@example.com",
		"password": "password123",
	})
	var body struct {
		User struct {
			Email   string `json:"email"`
			Credits int64  `json:"credits"`
		} `json:"user"`
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &body)
	if body.User.Email != "new@example.com" {
		t.Fatalf("unexpected user: %+v", body.User)
	}
	if body.User.Credits != 20 {
		t.Fatalf("expected signup bonus of 20 credits, got %d", body.User.Credits)
	}

	// The session cookie is set, so /api/auth/me works.
	srvURL, _ := url.Parse(env.srv.URL)
	found := false
	for _, c := range env.client.Jar.Cookies(srvURL) {
		if c.Name == "auth_token" && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected auth_token cookie after signup")
	}

	me := env.get(t, "/api/auth/me")
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", me.StatusCode)
	}
	me.Body.Close()
}

func TestSignup_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, passingEngine())
	env.signup(t, "dup@example.com")

	resp := env.postJSON(t, "/api/auth/signup", map[string]string{
		"name":     "Again",
		"email":    "dup@example.com",
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestSignup_InvalidBody(t *testing.T) {
	env := newTestEnv(t, passingEngine())

	resp, err := env.client.Post(env.srv.URL+"/api/auth/signup", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestLogin_RoundTrip(t *testing.T) {
	env := newTestEnv(t, passingEngine())
	env.signup(t, "login@example.com")

	// Drop the signup session and log back in.
	env.client.Jar, _ = newEmptyJar()
	resp := env.postJSON(t, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "password123",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	me := env.get(t, "/api/auth/me")
	me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me after login: expected 200, got %d", me.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t, passingEngine())
	env.signup(t, "wrong@example.com")

	resp := env.postJSON(t, "/api/auth/login", map[string]string{
		"email":    "wrong@example.com",
		"password": "not-the-password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	env := newTestEnv(t, passingEngine())
	env.signup(t, "logout@example.com")

	resp := env.postJSON(t, "/api/auth/logout", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", resp.StatusCode)
	}

	me := env.get(t, "/api/auth/me")
	me.Body.Close()
	if me.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", me.StatusCode)
	}
}

func TestDemoSignup(t *testing.T) {
	env := newTestEnv(t, passingEngine())

	resp := env.postJSON(t, "/api/demo-signup", map[string]string{
		"fullName": "Demo User",
		"email":    "demo@example.com",
		"cell":     "+15551234567",
	})
	var body struct {
		OK   bool `json:"ok"`
		User struct {
			Credits int64 `json:"credits"`
		} `json:"user"`
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decodeBody(t, resp, &body)
	if !body.OK {
		t.Fatal("expected ok response")
	}
	if body.User.Credits != 20 {
		t.Fatalf("expected demo bonus, got %d", body.User.Credits)
	}

	// The demo session is usable right away.
	me := env.get(t, "/api/auth/me")
	me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me after demo signup: expected 200, got %d", me.StatusCode)
	}
}

func TestMagicLink_NeverRevealsAccounts(t *testing.T) {
	env := newTestEnv(t, passingEngine())
	env.signup(t, "known@example.com")

	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		resp := env.postJSON(t, "/api/auth/magic-link", map[string]string{"email": email})
		var body struct {
			OK bool `json:"ok"`
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", email, resp.StatusCode)
		}
		decodeBody(t, resp, &body)
		if !body.OK {
			t.Fatalf("%s: expected identical ok response", email)
		}
	}
}

func TestVerify_ConsumesToken(t *testing.T) {
	env := newTestEnv(t, passingEngine())
	env.signup(t, "verify@example.com")

	link, err := env.auth.RequestLoginLink(context.Background(), "verify@example.com")
	if err != nil {
		t.Fatalf("RequestLoginLink: %v", err)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	token := parsed.Query().Get("token")
	if token == "" {
		t.Fatalf("no token in link %q", link)
	}

	env.client.Jar, _ = newEmptyJar()
	resp := env.get(t, "/api/auth/verify?token="+url.QueryEscape(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", resp.StatusCode)
	}

	me := env.get(t, "/api/auth/me")
	me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("me after verify: expected 200, got %d", me.StatusCode)
	}

	// Second use of the same link fails.
	again := env.get(t, "/api/auth/verify?token="+url.QueryEscape(token))
	again.Body.Close()
	if again.StatusCode != http.StatusUnauthorized {
		t.Fatalf("verify reuse: expected 401, got %d", again.StatusCode)
	}
}
