package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmtfrombc/ai-daily-feed/internal/agent/producer"
	"github.com/gmtfrombc/ai-daily-feed/internal/agent/rotator"
	"github.com/gmtfrombc/ai-daily-feed/internal/config"
	"github.com/gmtfrombc/ai-daily-feed/internal/selector"
	"github.com/gmtfrombc/ai-daily-feed/pkg/logger"
)

const testSecret = "test-secret"

type fakeDraftRunner struct {
	result *producer.RunResult
	err    error
	calls  int
}

func (f *fakeDraftRunner) Run(ctx context.Context) (*producer.RunResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeRotateRunner struct {
	result *rotator.RunResult
	err    error
}

func (f *fakeRotateRunner) Run(ctx context.Context) (*rotator.RunResult, error) {
	return f.result, f.err
}

func newTestServer(draft *fakeDraftRunner, rotate *fakeRotateRunner) *Server {
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	return New(config.ServerConfig{Addr: ":0", JWTSecret: testSecret}, draft, rotate, log)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func adminToken(t *testing.T) string {
	return signToken(t, testSecret, jwt.MapClaims{
		"sub":   "operator",
		"admin": true,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

func doRequest(srv *Server, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthIsOpen(t *testing.T) {
	srv := newTestServer(&fakeDraftRunner{}, &fakeRotateRunner{})

	rec := doRequest(srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateRequiresToken(t *testing.T) {
	draft := &fakeDraftRunner{result: &producer.RunResult{DraftID: "d1"}}
	srv := newTestServer(draft, &fakeRotateRunner{})

	rec := doRequest(srv, http.MethodPost, "/api/admin/drafts/generate", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, draft.calls, "core logic must not run for unauthenticated callers")
}

func TestGenerateRejectsBadSignature(t *testing.T) {
	draft := &fakeDraftRunner{result: &producer.RunResult{DraftID: "d1"}}
	srv := newTestServer(draft, &fakeRotateRunner{})

	token := signToken(t, "wrong-secret", jwt.MapClaims{"admin": true})
	rec := doRequest(srv, http.MethodPost, "/api/admin/drafts/generate", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, draft.calls)
}

func TestGenerateRejectsNonAdmin(t *testing.T) {
	draft := &fakeDraftRunner{result: &producer.RunResult{DraftID: "d1"}}
	srv := newTestServer(draft, &fakeRotateRunner{})

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "someone",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := doRequest(srv, http.MethodPost, "/api/admin/drafts/generate", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Zero(t, draft.calls)
}

func TestGenerateRunsForAdmin(t *testing.T) {
	draft := &fakeDraftRunner{result: &producer.RunResult{TopicID: "t1", DraftID: "d1"}}
	srv := newTestServer(draft, &fakeRotateRunner{})

	rec := doRequest(srv, http.MethodPost, "/api/admin/drafts/generate", adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, draft.calls)
	assert.Contains(t, rec.Body.String(), `"draft_id":"d1"`)
}

func TestGenerateEmptyPoolConflict(t *testing.T) {
	draft := &fakeDraftRunner{err: selector.ErrNoTopics}
	srv := newTestServer(draft, &fakeRotateRunner{})

	rec := doRequest(srv, http.MethodPost, "/api/admin/drafts/generate", adminToken(t))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGenerateFailureIsServerError(t *testing.T) {
	draft := &fakeDraftRunner{err: errors.New("storage down")}
	srv := newTestServer(draft, &fakeRotateRunner{})

	rec := doRequest(srv, http.MethodPost, "/api/admin/drafts/generate", adminToken(t))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRotateRunsForAdmin(t *testing.T) {
	rotate := &fakeRotateRunner{result: &rotator.RunResult{CurrentID: "a", Rotated: true, Articles: 3}}
	srv := newTestServer(&fakeDraftRunner{}, rotate)

	rec := doRequest(srv, http.MethodPost, "/api/admin/feed/rotate", adminToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current_id":"a"`)
}

func TestRotateRequiresToken(t *testing.T) {
	srv := newTestServer(&fakeDraftRunner{}, &fakeRotateRunner{})

	rec := doRequest(srv, http.MethodPost, "/api/admin/feed/rotate", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
