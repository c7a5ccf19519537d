package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"conduit/cmd/identity/ids"
	"conduit/cmd/internal/apperr"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store over SQLite (modernc.org/sqlite, no cgo).
// Timestamps are stored as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens path (":memory:" for a private in-memory database), enables
// foreign keys and applies the bundled migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("identity: sqlite path is required")
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: an in-memory database exists per connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := MigrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

const sqliteUserColumns = `id, username, email, bio, image, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row rowScanner, extra ...any) (User, error) {
	var (
		u                User
		created, updated int64
		dest             = []any{&u.ID, &u.Username, &u.Email, &u.Bio, &u.Image, &created, &updated}
	)
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return User{}, err
	}
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, in NewUser) (User, error) {
	now := time.UnixMilli(toMillis(nowOr(in.Now))).UTC()
	u := User{
		ID:        ids.NewUserID(),
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.Email, in.PasswordHash, toMillis(now), toMillis(now),
	)
	if err != nil {
		return User{}, fmt.Errorf("identity.CreateUser: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+` FROM users WHERE id = ?`, id.String())
	u, err := scanSQLiteUser(row)
	if err != nil {
		return User{}, sqliteNotFound("identity.GetUserByID", "user", err)
	}
	return u, nil
}

func (s *SQLiteStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	var hash string
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteUserColumns+`, password_hash FROM users WHERE email = ?`, email)
	u, err := scanSQLiteUser(row, &hash)
	if err != nil {
		return UserAuth{}, sqliteNotFound("identity.GetUserAuthByEmail", "user", err)
	}
	return UserAuth{User: u, PasswordHash: hash}, nil
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, id uuid.UUID, p UserPatch) (User, error) {
	const op = "identity.UpdateUser"
	if p.Empty() {
		return s.GetUserByID(ctx, id)
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE users
		    SET username      = COALESCE(?, username),
		        email         = COALESCE(?, email),
		        password_hash = COALESCE(?, password_hash),
		        bio           = COALESCE(?, bio),
		        image         = COALESCE(?, image),
		        updated_at    = ?
		  WHERE id = ?
		  RETURNING `+sqliteUserColumns,
		p.Username, p.Email, p.PasswordHash, p.Bio, p.Image, toMillis(nowOr(p.Now)), id.String(),
	)
	u, err := scanSQLiteUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperr.NotFound(op, "user")
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, username string, viewer *uuid.UUID) (Profile, error) {
	var viewerID any
	if viewer != nil {
		viewerID = viewer.String()
	}

	var pr Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT u.username, u.bio, u.image,
		        EXISTS (SELECT 1 FROM follows f WHERE f.followed_id = u.id AND f.follower_id = ?)
		   FROM users u
		  WHERE u.username = ?`,
		viewerID, username,
	).Scan(&pr.Username, &pr.Bio, &pr.Image, &pr.Following)
	if err != nil {
		return Profile{}, sqliteNotFound("identity.GetProfile", "profile", err)
	}
	return pr, nil
}

func (s *SQLiteStore) Follow(ctx context.Context, follower uuid.UUID, username string) (Profile, error) {
	return s.setFollow(ctx, "identity.Follow", follower, username, true)
}

func (s *SQLiteStore) Unfollow(ctx context.Context, follower uuid.UUID, username string) (Profile, error) {
	return s.setFollow(ctx, "identity.Unfollow", follower, username, false)
}

func (s *SQLiteStore) setFollow(ctx context.Context, op string, follower uuid.UUID, username string, follow bool) (Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		targetID string
		pr       Profile
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, username, bio, image FROM users WHERE username = ?`, username,
	).Scan(&targetID, &pr.Username, &pr.Bio, &pr.Image)
	if err != nil {
		return Profile{}, sqliteNotFound(op, "profile", err)
	}

	if follow {
		if targetID == follower.String() {
			return Profile{}, apperr.Forbidden(op, "cannot follow yourself")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, ?)`,
			follower.String(), targetID, toMillis(time.Now()))
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
			follower.String(), targetID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return Profile{}, err
	}

	pr.Following = follow
	return pr, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func sqliteNotFound(op, resource string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, resource)
	}
	return fmt.Errorf("%s: %w", op, err)
}
