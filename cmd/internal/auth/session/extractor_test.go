package session

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"conduit/cmd/internal/apperr"
	"conduit/cmd/security/token"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("session-test-secret-0123456789abcdef")

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestExtractor(t *testing.T) (*Extractor, *token.Codec, *clock, *bytes.Buffer) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(testSecret, token.WithClock(clk.Now))
	require.NoError(t, err)

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewExtractor(codec, log), codec, clk, &logs
}

func header(v string) http.Header {
	h := http.Header{}
	h.Set("Authorization", v)
	return h
}

func TestRequired_ValidToken(t *testing.T) {
	x, codec, _, _ := newTestExtractor(t)
	u := uuid.New()

	tok, err := codec.Issue(u)
	require.NoError(t, err)

	got, err := x.Required(header("Token " + tok))
	require.NoError(t, err)
	assert.Equal(t, u, got)

	got, err = x.Required(header("token " + tok))
	require.NoError(t, err, "scheme is case-insensitive")
	assert.Equal(t, u, got)
}

func TestRequired_Rejections(t *testing.T) {
	x, codec, clk, logs := newTestExtractor(t)
	tok, err := codec.Issue(uuid.New())
	require.NoError(t, err)

	flipped := []byte(tok)
	flipped[len(flipped)/2] ^= 0x01

	expiredCodec, err := token.NewCodec(testSecret, token.WithClock(func() time.Time {
		return clk.now.Add(-token.DefaultLifetime - time.Second)
	}))
	require.NoError(t, err)
	expired, err := expiredCodec.Issue(uuid.New())
	require.NoError(t, err)

	cases := []struct {
		name   string
		h      http.Header
		reason string
	}{
		{"missing", http.Header{}, ReasonMissing},
		{"blank header", http.Header{"Authorization": {""}}, ReasonMalformed},
		{"blank then token", http.Header{"Authorization": {"", "Token " + tok}}, ReasonMalformed},
		{"bearer scheme", header("Bearer " + tok), ReasonScheme},
		{"no scheme", header(tok), ReasonScheme},
		{"empty token", header("Token "), ReasonScheme},
		{"two tokens", header("Token " + tok + " " + tok), ReasonMalformed},
		{"tampered", header("Token " + string(flipped)), ReasonSignature},
		{"expired", header("Token " + expired), ReasonExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs.Reset()
			id, err := x.Required(tc.h)
			require.Error(t, err)
			assert.True(t, apperr.IsUnauthorized(err))
			assert.Equal(t, uuid.Nil, id)
			assert.Contains(t, logs.String(), `"reason":"`+tc.reason+`"`)
			assert.NotContains(t, logs.String(), tok)
		})
	}
}

func TestRequired_UniformError(t *testing.T) {
	x, _, _, _ := newTestExtractor(t)

	_, missing := x.Required(http.Header{})
	_, bad := x.Required(header("Token abc.def.ghi"))
	assert.Equal(t, missing.Error(), bad.Error())
}

func TestOptional(t *testing.T) {
	x, codec, _, _ := newTestExtractor(t)

	id, ok, err := x.Optional(http.Header{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uuid.Nil, id)

	u := uuid.New()
	tok, err := codec.Issue(u)
	require.NoError(t, err)
	id, ok, err = x.Optional(header("Token " + tok))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, u, id)

	_, ok, err = x.Optional(header("Token nope"))
	assert.True(t, apperr.IsUnauthorized(err))
	assert.False(t, ok)

	// A header that is sent but empty is a bad credential, not an anonymous caller.
	for _, h := range []http.Header{
		{"Authorization": {""}},
		{"Authorization": {"   "}},
		{"Authorization": {"", "Token garbage"}},
	} {
		id, ok, err = x.Optional(h)
		assert.True(t, apperr.IsUnauthorized(err), "%v", h)
		assert.False(t, ok)
		assert.Equal(t, uuid.Nil, id)
	}
}

func TestIdentityContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := IdentityFrom(req.Context())
	assert.False(t, ok)

	u := uuid.New()
	got, ok := IdentityFrom(WithIdentity(req.Context(), u))
	assert.True(t, ok)
	assert.Equal(t, u, got)
}

func TestRequireIdentityMiddleware(t *testing.T) {
	x, codec, clk, _ := newTestExtractor(t)
	u := uuid.New()
	tok, err := codec.Issue(u)
	require.NoError(t, err)

	var seen uuid.UUID
	h := x.RequireIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Token "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, u, seen)

	// Same token once the clock passes its expiry.
	clk.now = clk.now.Add(token.DefaultLifetime)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token", rec.Header().Get("WWW-Authenticate"))
	assert.True(t, strings.Contains(rec.Body.String(), `"unauthorized"`))
}

func TestOptionalIdentityMiddleware(t *testing.T) {
	x, _, _, _ := newTestExtractor(t)

	called := false
	h := x.OptionalIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := IdentityFrom(r.Context())
		assert.False(t, ok)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profiles/jake", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)

	called = false
	req := httptest.NewRequest(http.MethodGet, "/api/profiles/jake", nil)
	req.Header.Set("Authorization", "Token garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
