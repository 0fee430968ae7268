package mpesa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOAuthTokenProvider_Token(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches with basic auth and caches until expiry", func(t *testing.T) {
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key" || pass != "secret" {
				t.Errorf("basic auth not set: %q/%q", user, pass)
			}
			if r.URL.Query().Get("grant_type") != "client_credentials" {
				t.Errorf("grant_type %q", r.URL.Query().Get("grant_type"))
			}
			w.Write([]byte(`{"access_token":"tok-1","expires_in":"3599"}`))
		}))
		defer srv.Close()

		provider := NewOAuthTokenProvider(srv.URL, "key", "secret")

		tok, err := provider.Token(ctx)
		if err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if tok != "tok-1" {
			t.Errorf("token %q", tok)
		}

		if _, err := provider.Token(ctx); err != nil {
			t.Fatalf("cached Token failed: %v", err)
		}
		if requests != 1 {
			t.Errorf("expected a single upstream fetch, got %d", requests)
		}
	})

	t.Run("expired token is refetched", func(t *testing.T) {
		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
			// Lifetime below the safety skew, so it is expired on arrival.
			w.Write([]byte(`{"access_token":"tok","expires_in":"1"}`))
		}))
		defer srv.Close()

		provider := NewOAuthTokenProvider(srv.URL, "key", "secret")

		if _, err := provider.Token(ctx); err != nil {
			t.Fatalf("Token failed: %v", err)
		}
		if _, err := provider.Token(ctx); err != nil {
			t.Fatalf("second Token failed: %v", err)
		}
		if requests != 2 {
			t.Errorf("expected refetch of expired token, got %d requests", requests)
		}
	})

	t.Run("upstream failure surfaces as an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"errorMessage":"Invalid Authentication passed"}`))
		}))
		defer srv.Close()

		provider := NewOAuthTokenProvider(srv.URL, "bad", "creds")
		if _, err := provider.Token(ctx); err == nil {
			t.Fatal("expected error for rejected credentials")
		}
	})

	t.Run("empty access token is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		provider := NewOAuthTokenProvider(srv.URL, "key", "secret")
		if _, err := provider.Token(ctx); err == nil {
			t.Fatal("expected error for response without access_token")
		}
	})
}
