package gotrue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"church-portal/internal/identity/domain"
)

const userJSON = `{"id":"u-1","email":"a@example.com","email_confirmed_at":"2024-01-01T00:00:00Z","user_metadata":{"name":"Ann","role":"CHURCH_ADMIN","church_id":"c-1"},"created_at":"2024-01-01T00:00:00Z"}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "anon-key", time.Second)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("https://x.supabase.co/", "k", 0)
	if c.BaseURL != "https://x.supabase.co" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", c.BaseURL)
	}
	if c.HTTPClient.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.HTTPClient.Timeout, defaultTimeout)
	}
}

func TestGetUser_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/auth/v1/user" {
			t.Errorf("request = %s %s, want GET /auth/v1/user", r.Method, r.URL.Path)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey = %q, want anon-key", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer at-1" {
			t.Errorf("Authorization = %q, want Bearer at-1", r.Header.Get("Authorization"))
		}
		w.Write([]byte(userJSON))
	})

	id, err := c.GetUser(context.Background(), "at-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if id.ID != "u-1" || id.Email != "a@example.com" || !id.EmailConfirmed {
		t.Errorf("identity = %+v", id)
	}
	if id.Attributes.Role != "CHURCH_ADMIN" || id.Attributes.ChurchID != "c-1" || id.Attributes.Name != "Ann" {
		t.Errorf("attributes = %+v", id.Attributes)
	}
}

func TestGetUser_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"msg":"invalid JWT"}`))
	})
	_, err := c.GetUser(context.Background(), "expired")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestGetUser_EmptyToken(t *testing.T) {
	c := NewClient("http://unused", "k", time.Second)
	if _, err := c.GetUser(context.Background(), ""); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestGetUser_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.GetUser(context.Background(), "at")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestGetUser_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, "k", time.Second)
	_, err := c.GetUser(context.Background(), "at")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient("", "", time.Second)
	_, err := c.SignInWithPassword(context.Background(), "a@example.com", "secret")
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}

func TestSignInWithPassword_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("url = %s, want token?grant_type=password", r.URL.String())
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Decode body: %v", err)
		}
		if body["email"] != "a@example.com" || body["password"] != "secret" {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_at":1700000000,"user":` + userJSON + `}`))
	})

	tok, err := c.SignInWithPassword(context.Background(), "a@example.com", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if tok.AccessToken != "at" || tok.RefreshToken != "rt" {
		t.Errorf("tokens = %+v", tok)
	}
	if !tok.ExpiresAt.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("ExpiresAt = %v", tok.ExpiresAt)
	}
	if tok.Identity.ID != "u-1" {
		t.Errorf("Identity.ID = %q, want u-1", tok.Identity.ID)
	}
}

func TestSignInWithPassword_CredentialErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		want   domain.CredentialReason
	}{
		{"invalid grant", 400, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, domain.ReasonInvalidCredentials},
		{"error code", 400, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, domain.ReasonInvalidCredentials},
		{"not confirmed", 400, `{"error_code":"email_not_confirmed","msg":"Email not confirmed"}`, domain.ReasonEmailNotConfirmed},
		{"rate limited", 429, `{"msg":"slow down"}`, domain.ReasonRateLimited},
		{"unknown", 400, `{"msg":"something odd"}`, domain.ReasonInvalidInput},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			_, err := c.SignInWithPassword(context.Background(), "a@example.com", "bad")
			ce, ok := domain.AsCredentialError(err)
			if !ok {
				t.Fatalf("error = %v, want CredentialError", err)
			}
			if ce.Reason != tc.want {
				t.Errorf("Reason = %q, want %q", ce.Reason, tc.want)
			}
		})
	}
}

func TestSignUp_SendsMetadata(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("path = %q, want /auth/v1/signup", r.URL.Path)
		}
		var body struct {
			Email string            `json:"email"`
			Data  map[string]string `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Decode body: %v", err)
		}
		if body.Data["role"] != "MEMBER" || body.Data["church_id"] != "c-9" || body.Data["name"] != "Bob" {
			t.Errorf("data = %v", body.Data)
		}
		// Confirmation required: the provider returns the bare user.
		w.Write([]byte(`{"id":"u-2","email":"b@example.com","user_metadata":{"role":"MEMBER"}}`))
	})

	tok, err := c.SignUp(context.Background(), "b@example.com", "secret1", domain.Attributes{Name: "Bob", Role: "MEMBER", ChurchID: "c-9"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if tok.Identity.ID != "u-2" {
		t.Errorf("Identity.ID = %q, want u-2", tok.Identity.ID)
	}
	if tok.AccessToken != "" {
		t.Error("AccessToken should be empty when confirmation is required")
	}
	if tok.Identity.EmailConfirmed {
		t.Error("EmailConfirmed should be false")
	}
}

func TestSignUp_ReturnsSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":` + userJSON + `}`))
	})
	tok, err := c.SignUp(context.Background(), "a@example.com", "secret1", domain.Attributes{Role: "MEMBER"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if tok.AccessToken != "at" {
		t.Errorf("AccessToken = %q, want at", tok.AccessToken)
	}
	if tok.ExpiresAt.Before(time.Now()) {
		t.Errorf("ExpiresAt = %v, want in the future", tok.ExpiresAt)
	}
}

func TestSignUp_AlreadyRegistered(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error_code":"user_already_exists","msg":"User already registered"}`))
	})
	_, err := c.SignUp(context.Background(), "a@example.com", "secret1", domain.Attributes{})
	ce, ok := domain.AsCredentialError(err)
	if !ok || ce.Reason != domain.ReasonAlreadyRegistered {
		t.Errorf("error = %v, want already registered", err)
	}
}

func TestRefresh(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("grant_type") != "refresh_token" {
				t.Errorf("grant_type = %q, want refresh_token", r.URL.Query().Get("grant_type"))
			}
			w.Write([]byte(`{"access_token":"at2","refresh_token":"rt2","expires_in":3600,"user":` + userJSON + `}`))
		})
		tok, err := c.Refresh(context.Background(), "rt1")
		if err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		if tok.AccessToken != "at2" || tok.RefreshToken != "rt2" {
			t.Errorf("tokens = %+v", tok)
		}
	})
	t.Run("revoked", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token"}`))
		})
		if _, err := c.Refresh(context.Background(), "rt1"); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("error = %v, want ErrUnauthenticated", err)
		}
	})
	t.Run("backend down", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		if _, err := c.Refresh(context.Background(), "rt1"); !errors.Is(err, domain.ErrBackendUnavailable) {
			t.Errorf("error = %v, want ErrBackendUnavailable", err)
		}
	})
}

func TestSignOut(t *testing.T) {
	var called bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/auth/v1/logout" {
			t.Errorf("path = %q, want /auth/v1/logout", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := c.SignOut(context.Background(), "stale"); err != nil {
		t.Errorf("SignOut with stale token: %v", err)
	}
	if !called {
		t.Error("SignOut did not call the provider")
	}
	if err := c.SignOut(context.Background(), ""); err != nil {
		t.Errorf("SignOut with empty token: %v", err)
	}
}
