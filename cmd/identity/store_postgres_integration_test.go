package identity

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"conduit/cmd/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Integration tests are opt-in and require CONDUIT_DATABASE_URL.
// In non-CI runs, unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresStore_DuplicateUsernameTranslates(t *testing.T) {
	t.Parallel()

	s := mustNewMigratedStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := s.CreateUser(ctx, NewUser{Username: "jake", Email: "jake@jake.jake", PasswordHash: "h"}); err != nil {
		t.Fatalf("create user 1: %v", err)
	}

	_, err := s.CreateUser(ctx, NewUser{Username: "jake", Email: "other@jake.jake", PasswordHash: "h"})
	if err == nil {
		t.Fatalf("expected unique violation, got nil")
	}

	var ve *apperr.ValidationError
	if !errors.As(Constraints.Translate(err), &ve) {
		t.Fatalf("expected validation error, got: %v", err)
	}
	if got := ve.Fields["username"]; len(got) != 1 || got[0] != "username taken" {
		t.Fatalf("fields = %v", ve.Fields)
	}
}

func TestPostgresStore_DuplicateEmailTranslates(t *testing.T) {
	t.Parallel()

	s := mustNewMigratedStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if _, err := s.CreateUser(ctx, NewUser{Username: "jake", Email: "jake@jake.jake", PasswordHash: "h"}); err != nil {
		t.Fatalf("create user 1: %v", err)
	}
	_, err := s.CreateUser(ctx, NewUser{Username: "other", Email: "jake@jake.jake", PasswordHash: "h"})

	var ve *apperr.ValidationError
	if !errors.As(Constraints.Translate(err), &ve) || ve.Fields["email"] == nil {
		t.Fatalf("expected email validation error, got: %v", err)
	}
}

func TestPostgresStore_UserRoundTrip(t *testing.T) {
	t.Parallel()

	s := mustNewMigratedStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	u, err := s.CreateUser(ctx, NewUser{Username: "jake", Email: "jake@jake.jake", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "jake" || got.Email != "jake@jake.jake" || got.Bio != "" || got.Image != nil {
		t.Fatalf("unexpected user: %+v", got)
	}

	bio := "I work at statefarm"
	got, err = s.UpdateUser(ctx, u.ID, UserPatch{Bio: &bio})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Bio != bio {
		t.Fatalf("bio = %q", got.Bio)
	}

	auth, err := s.GetUserAuthByEmail(ctx, "jake@jake.jake")
	if err != nil || auth.PasswordHash != "h" {
		t.Fatalf("auth lookup: %+v, %v", auth, err)
	}

	if _, err := s.GetUserByID(ctx, uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("expected not found, got: %v", err)
	}
}

func TestPostgresStore_FollowFlow(t *testing.T) {
	t.Parallel()

	s := mustNewMigratedStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	jake, err := s.CreateUser(ctx, NewUser{Username: "jake", Email: "jake@jake.jake", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create jake: %v", err)
	}
	if _, err := s.CreateUser(ctx, NewUser{Username: "celeb", Email: "celeb@jake.jake", PasswordHash: "h"}); err != nil {
		t.Fatalf("create celeb: %v", err)
	}

	if _, err := s.Follow(ctx, jake.ID, "jake"); !apperr.IsForbidden(err) {
		t.Fatalf("self follow: expected forbidden, got: %v", err)
	}

	for i := 0; i < 2; i++ {
		pr, err := s.Follow(ctx, jake.ID, "celeb")
		if err != nil || !pr.Following {
			t.Fatalf("follow #%d: %+v, %v", i, pr, err)
		}
	}

	pr, err := s.GetProfile(ctx, "celeb", &jake.ID)
	if err != nil || !pr.Following {
		t.Fatalf("profile after follow: %+v, %v", pr, err)
	}
	pr, err = s.GetProfile(ctx, "celeb", nil)
	if err != nil || pr.Following {
		t.Fatalf("anonymous profile: %+v, %v", pr, err)
	}

	if pr, err = s.Unfollow(ctx, jake.ID, "celeb"); err != nil || pr.Following {
		t.Fatalf("unfollow: %+v, %v", pr, err)
	}
}

func mustNewMigratedStore(t *testing.T) *PostgresStore {
	t.Helper()

	pool := mustOpenTestPool(t)
	t.Cleanup(pool.Close)

	schema := "conduit_it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := MigratePostgres(ctx, pool, schema); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	s, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("CONDUIT_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: CONDUIT_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse CONDUIT_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	// Validate acquire quickly (fast fail).
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (CONDUIT_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
