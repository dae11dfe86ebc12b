package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mediadrop/gateway/internal/config"
)

func testDiscordConfig() config.DiscordConfig {
	return config.DiscordConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/auth/callback",
		GuildID:      "guild-1",
		RoleID:       "role-uploader",
	}
}

// fakeDiscord serves the token endpoint and the two REST calls the client
// makes. memberStatus lets tests simulate a non-member.
func fakeDiscord(t *testing.T, roles []string, memberStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"token_type":   "Bearer",
			"expires_in":   604800,
		})
	})

	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-abc" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":            "80351110224678912",
			"username":      "nelly",
			"avatar":        "8342729096ea3675442027381ff50dfe",
			"discriminator": "1337",
		})
	})

	mux.HandleFunc("/users/@me/guilds/guild-1/member", func(w http.ResponseWriter, r *http.Request) {
		if memberStatus != http.StatusOK {
			http.Error(w, "not found", memberStatus)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"roles": roles})
	})

	return httptest.NewServer(mux)
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(testDiscordConfig())
	c.apiBase = srv.URL
	c.oauth.Endpoint.TokenURL = srv.URL + "/oauth2/token"
	c.httpc = srv.Client()
	return c
}

func TestAuthenticateSuccess(t *testing.T) {
	srv := fakeDiscord(t, []string{"role-misc", "role-uploader"}, http.StatusOK)
	defer srv.Close()

	user, err := newTestClient(srv).Authenticate(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}

	if user.ID != "80351110224678912" || user.Username != "nelly" {
		t.Errorf("user = %+v", user)
	}
	if user.AccessToken != "tok-abc" {
		t.Errorf("access token = %q", user.AccessToken)
	}
	if !user.HasRole("role-uploader") {
		t.Error("roles not carried into the session user")
	}
}

func TestAuthenticateMissingRole(t *testing.T) {
	srv := fakeDiscord(t, []string{"role-misc"}, http.StatusOK)
	defer srv.Close()

	_, err := newTestClient(srv).Authenticate(context.Background(), "code-1")
	if !errors.Is(err, ErrMissingRole) {
		t.Fatalf("expected ErrMissingRole, got %v", err)
	}
}

func TestAuthenticateNotGuildMember(t *testing.T) {
	srv := fakeDiscord(t, nil, http.StatusNotFound)
	defer srv.Close()

	_, err := newTestClient(srv).Authenticate(context.Background(), "code-1")
	if !errors.Is(err, ErrNotGuildMember) {
		t.Fatalf("expected ErrNotGuildMember, got %v", err)
	}
}

func TestAuthenticateMemberFetchFailure(t *testing.T) {
	// A Discord outage on the member endpoint is not a membership verdict.
	srv := fakeDiscord(t, nil, http.StatusInternalServerError)
	defer srv.Close()

	_, err := newTestClient(srv).Authenticate(context.Background(), "code-1")
	if err == nil {
		t.Fatal("expected error on member fetch failure")
	}
	if errors.Is(err, ErrNotGuildMember) {
		t.Fatalf("5xx from member endpoint must not map to ErrNotGuildMember, got %v", err)
	}
}

func TestAuthenticateBadCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestClient(srv).Authenticate(context.Background(), "bad-code")
	if err == nil {
		t.Fatal("expected error for rejected code")
	}
}

func TestAuthCodeURL(t *testing.T) {
	c := NewClient(testDiscordConfig())
	u := c.AuthCodeURL("state-1")

	for _, want := range []string{
		"client_id=client-id",
		"state=state-1",
		"prompt=consent",
		"identify",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("authorize URL %q missing %q", u, want)
		}
	}
}
