package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"church-portal/internal/access"
	healthhandler "church-portal/internal/health/handler"
	identitydomain "church-portal/internal/identity/domain"
	identityservice "church-portal/internal/identity/service"
	profiledomain "church-portal/internal/profile/domain"
	profileservice "church-portal/internal/profile/service"
	"church-portal/internal/server/middleware"
	sessionservice "church-portal/internal/session/service"
	webhandler "church-portal/internal/web/handler"
)

const cookieName = "cp_session"

type countingResolver struct {
	calls int
}

func (r *countingResolver) Resolve(_ context.Context, sid string) identityservice.Resolution {
	r.calls++
	if sid != "member-session" {
		return identityservice.Resolution{}
	}
	return identityservice.Resolution{SessionID: sid, Identity: &identitydomain.Identity{ID: "u1", Email: "m@example.com"}}
}

type memberLookup struct{}

func (memberLookup) Lookup(context.Context, string) profileservice.Result {
	return profileservice.Result{
		Status:  profileservice.StatusFound,
		Profile: &profiledomain.Profile{ID: "u1", Role: profiledomain.RoleMember, ChurchID: "c1"},
	}
}

func newTestRouter(t *testing.T, res *countingResolver, trusted ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	guard := middleware.NewGuard(middleware.GuardDeps{
		Resolver:   res,
		Classifier: access.MustClassifier(access.DefaultRoutes()),
		Lookup:     memberLookup{},
		Cookie:     sessionservice.NewCookie(cookieName, false),
	})
	r, err := NewRouter(Deps{
		TrustedProxies: trusted,
		Guard:          guard,
		Web:            webhandler.New(webhandler.Deps{}),
		Health:         healthhandler.New(nil, nil, nil),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return r
}

func TestRouter(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		session      string
		wantStatus   int
		wantLocation string
	}{
		{"anonymous landing", "/", "", http.StatusOK, ""},
		{"anonymous dashboard", "/church", "", http.StatusFound, "/login"},
		{"anonymous auth api", "/api/auth/state", "", http.StatusFound, "/login"},
		{"anonymous unknown path", "/reports", "", http.StatusFound, "/login"},
		{"member on admin dashboard", "/church/members", "member-session", http.StatusFound, "/member"},
		{"member on login", "/login", "member-session", http.StatusFound, "/member"},
		{"stale session on login", "/login", "expired", http.StatusOK, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &countingResolver{})
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.session != "" {
				req.AddCookie(&http.Cookie{Name: cookieName, Value: tc.session})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if got := w.Header().Get("Location"); got != tc.wantLocation {
				t.Errorf("Location = %q, want %q", got, tc.wantLocation)
			}
		})
	}
}

func TestRouter_HealthBypassesGuard(t *testing.T) {
	res := &countingResolver{}
	r := newTestRouter(t, res)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", w.Body.String())
	}
	if res.calls != 0 {
		t.Errorf("resolver calls = %d, want 0", res.calls)
	}
}

func TestRouter_StaleCookieCleared(t *testing.T) {
	r := newTestRouter(t, &countingResolver{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "expired"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if !strings.Contains(w.Header().Get("Set-Cookie"), cookieName+"=;") {
		t.Errorf("Set-Cookie = %q, want cleared session cookie", w.Header().Get("Set-Cookie"))
	}
}

func TestRouter_ClientIP(t *testing.T) {
	testCases := []struct {
		name    string
		trusted []string
		want    string
	}{
		{"forwarded header ignored by default", nil, "192.0.2.10"},
		{"forwarded header from trusted proxy", []string{"192.0.2.0/24"}, "203.0.113.5"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &countingResolver{}, tc.trusted...)
			r.GET("/api/public/whoami", func(c *gin.Context) {
				c.String(http.StatusOK, middleware.ClientIPFromContext(c.Request.Context()))
			})
			req := httptest.NewRequest(http.MethodGet, "/api/public/whoami", nil)
			req.RemoteAddr = "192.0.2.10:4000"
			req.Header.Set("X-Forwarded-For", "203.0.113.5")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Body.String() != tc.want {
				t.Errorf("client ip = %q, want %q", w.Body.String(), tc.want)
			}
		})
	}
}

func TestNewRouter_RejectsInvalidProxy(t *testing.T) {
	_, err := NewRouter(Deps{TrustedProxies: []string{"not-an-ip"}, Web: webhandler.New(webhandler.Deps{})})
	if err == nil {
		t.Fatal("NewRouter should reject an invalid trusted proxy")
	}
}
