package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCanBypassPassword(t *testing.T) {
	moderator := &Identity{Username: "mod", Permissions: []string{PermManagePastes}}
	owner := &Identity{Username: "alice"}
	stranger := &Identity{Username: "bob"}

	cases := []struct {
		name      string
		owner     string
		requester *Identity
		want      bool
	}{
		{"anonymous", "alice", nil, false},
		{"owner match", "alice", owner, true},
		{"different user", "alice", stranger, false},
		{"unowned paste", "", owner, false},
		{"moderator on owned paste", "alice", moderator, true},
		{"moderator on unowned paste", "", moderator, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanBypassPassword(tc.owner, tc.requester); got != tc.want {
				t.Errorf("CanBypassPassword(%q, %v) = %v, want %v", tc.owner, tc.requester, got, tc.want)
			}
		})
	}
}

func TestHTTPProviderGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		c, err := r.Cookie("__Secure-Token")
		if err != nil || c.Value == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Identity{Username: "alice", Permissions: []string{"ManagePastes"}})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	ident, err := p.GetProfile(context.Background(), "token-value")
	if err != nil {
		t.Fatal(err)
	}
	if ident.Username != "alice" {
		t.Errorf("expected alice, got %q", ident.Username)
	}
	if !ident.HasPermission(PermManagePastes) {
		t.Error("expected manage permission")
	}
}

func TestHTTPProviderRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := NewHTTPProvider(srv.URL).GetProfile(context.Background(), ""); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHTTPProviderRejectsEmptyUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Identity{})
	}))
	defer srv.Close()

	if _, err := NewHTTPProvider(srv.URL).GetProfile(context.Background(), "t"); err == nil {
		t.Fatal("expected error for empty username")
	}
}
