package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/exstem-results/internal/response"
	"github.com/stemsi/exstem-results/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubValidator struct {
	claims *service.Claims
	err    error
}

func (s stubValidator) ValidateToken(string) (*service.Claims, error) {
	return s.claims, s.err
}

func adminClaims(tokenType service.TokenType) *service.Claims {
	return &service.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-7"},
		TokenType:        tokenType,
	}
}

func TestRequireAdminJWT(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		query      string
		validator  stubValidator
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"missing token", "", "", stubValidator{}, http.StatusUnauthorized, response.ErrTokenRequired},
		{"invalid token", "Bearer abc", "", stubValidator{err: service.ErrTokenInvalid}, http.StatusUnauthorized, response.ErrTokenInvalid},
		{"expired token", "Bearer abc", "", stubValidator{err: fmt.Errorf("%w: exp claim in the past", service.ErrTokenExpired)}, http.StatusUnauthorized, response.ErrTokenExpired},
		{"student token", "Bearer abc", "", stubValidator{claims: adminClaims(service.TokenTypeStudent)}, http.StatusForbidden, response.ErrAdminOnly},
		{"admin via header", "bearer abc", "", stubValidator{claims: adminClaims(service.TokenTypeAdmin)}, http.StatusOK, ""},
		{"admin via query", "", "abc", stubValidator{claims: adminClaims(service.TokenTypeAdmin)}, http.StatusOK, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", RequireAdminJWT(tc.validator), func(c *gin.Context) {
				c.String(http.StatusOK, AdminID(c))
			})

			target := "/"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if tc.wantCode == "" {
				if w.Body.String() != "admin-7" {
					t.Fatalf("expected admin identity in context, got %q", w.Body.String())
				}
				return
			}
			var body response.Response
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error == nil || body.Error.Code != tc.wantCode {
				t.Fatalf("expected %s, got %+v", tc.wantCode, body.Error)
			}
		})
	}
}

func brotliRouter(body string) *gin.Engine {
	r := gin.New()
	r.Use(BrotliWithConfig(BrotliConfig{MinLength: 64}))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, body)
	})
	return r
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("student\tscore\n", 100)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	w := httptest.NewRecorder()
	brotliRouter(body).ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != body {
		t.Fatalf("round trip mismatch")
	}
}

func TestBrotliPassesSmallBodiesAndNonAcceptingClients(t *testing.T) {
	small := httptest.NewRequest(http.MethodGet, "/", nil)
	small.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	brotliRouter("ok").ServeHTTP(w, small)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("small body should pass through, got %q (%q)", w.Body.String(), w.Header().Get("Content-Encoding"))
	}

	large := strings.Repeat("x", 500)
	plain := httptest.NewRequest(http.MethodGet, "/", nil)
	plain.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	brotliRouter(large).ServeHTTP(w, plain)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != large {
		t.Fatalf("client without br support should get the plain body")
	}
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/", NoStore(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
}

func TestRateLimiterKeyBuckets(t *testing.T) {
	rl := &RateLimiter{name: "export", window: time.Minute}
	base := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)

	if rl.key("admin:a", base) != rl.key("admin:a", base.Add(50*time.Second)) {
		t.Fatalf("requests in the same minute must share a bucket")
	}
	if rl.key("admin:a", base) == rl.key("admin:a", base.Add(time.Minute)) {
		t.Fatalf("requests a window apart must not share a bucket")
	}
	if !strings.HasPrefix(rl.key("ip:1.2.3.4", base), "ratelimit:export:ip:1.2.3.4:") {
		t.Fatalf("unexpected key %q", rl.key("ip:1.2.3.4", base))
	}
}
