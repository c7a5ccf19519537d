package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"conduit/cmd/identity/ids"
	"conduit/cmd/internal/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultSchema is the Postgres schema the identity tables live in.
const DefaultSchema = "conduit"

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; the store never closes it.
// Table identifiers are schema-qualified and quoted with pgx.Identifier.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema (default "conduit").
// The name must be a legal unquoted PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: DefaultSchema}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

// Schema returns the schema the store reads and writes.
func (s *PostgresStore) Schema() string { return s.schema }

const pgUserColumns = `id, username, email, bio, image, created_at, updated_at`

func (s *PostgresStore) CreateUser(ctx context.Context, in NewUser) (User, error) {
	now := nowOr(in.Now)
	u := User{
		ID:        ids.NewUserID(),
		Username:  in.Username,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+pgIdent(s.schema, "users")+` (
		     id, username, email, password_hash, created_at, updated_at
		   ) VALUES ($1, $2, $3, $4, $5, $5)`,
		u.ID, u.Username, u.Email, in.PasswordHash, now,
	)
	if err != nil {
		return User{}, fmt.Errorf("identity.CreateUser: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	const op = "identity.GetUserByID"

	row := s.pool.QueryRow(ctx,
		`SELECT `+pgUserColumns+` FROM `+pgIdent(s.schema, "users")+` WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return User{}, pgNotFound(op, "user", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error) {
	const op = "identity.GetUserAuthByEmail"

	var ua UserAuth
	err := s.pool.QueryRow(ctx,
		`SELECT `+pgUserColumns+`, password_hash FROM `+pgIdent(s.schema, "users")+` WHERE email = $1`,
		email,
	).Scan(&ua.ID, &ua.Username, &ua.Email, &ua.Bio, &ua.Image, &ua.CreatedAt, &ua.UpdatedAt, &ua.PasswordHash)
	if err != nil {
		return UserAuth{}, pgNotFound(op, "user", err)
	}
	return ua, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id uuid.UUID, p UserPatch) (User, error) {
	const op = "identity.UpdateUser"
	if p.Empty() {
		return s.GetUserByID(ctx, id)
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+pgIdent(s.schema, "users")+`
		    SET username      = COALESCE($2, username),
		        email         = COALESCE($3, email),
		        password_hash = COALESCE($4, password_hash),
		        bio           = COALESCE($5, bio),
		        image         = COALESCE($6, image),
		        updated_at    = $7
		  WHERE id = $1
		  RETURNING `+pgUserColumns,
		id, p.Username, p.Email, p.PasswordHash, p.Bio, p.Image, nowOr(p.Now),
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(op, "user")
		}
		return User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, username string, viewer *uuid.UUID) (Profile, error) {
	const op = "identity.GetProfile"

	var pr Profile
	err := s.pool.QueryRow(ctx,
		`SELECT u.username, u.bio, u.image,
		        EXISTS (SELECT 1 FROM `+pgIdent(s.schema, "follows")+` f
		                 WHERE f.followed_id = u.id AND f.follower_id = $2)
		   FROM `+pgIdent(s.schema, "users")+` u
		  WHERE u.username = $1`,
		username, viewer,
	).Scan(&pr.Username, &pr.Bio, &pr.Image, &pr.Following)
	if err != nil {
		return Profile{}, pgNotFound(op, "profile", err)
	}
	return pr, nil
}

func (s *PostgresStore) Follow(ctx context.Context, follower uuid.UUID, username string) (Profile, error) {
	return s.setFollow(ctx, "identity.Follow", follower, username, true)
}

func (s *PostgresStore) Unfollow(ctx context.Context, follower uuid.UUID, username string) (Profile, error) {
	return s.setFollow(ctx, "identity.Unfollow", follower, username, false)
}

func (s *PostgresStore) setFollow(ctx context.Context, op string, follower uuid.UUID, username string, follow bool) (Profile, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	if err != nil {
		return Profile{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		targetID uuid.UUID
		pr       Profile
	)
	err = tx.QueryRow(ctx,
		`SELECT id, username, bio, image FROM `+pgIdent(s.schema, "users")+` WHERE username = $1`,
		username,
	).Scan(&targetID, &pr.Username, &pr.Bio, &pr.Image)
	if err != nil {
		return Profile{}, pgNotFound(op, "profile", err)
	}

	follows := pgIdent(s.schema, "follows")
	if follow {
		if targetID == follower {
			return Profile{}, apperr.Forbidden(op, "cannot follow yourself")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO `+follows+` (follower_id, followed_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			follower, targetID)
	} else {
		_, err = tx.Exec(ctx,
			`DELETE FROM `+follows+` WHERE follower_id = $1 AND followed_id = $2`,
			follower, targetID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Profile{}, err
	}

	pr.Following = follow
	return pr, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Bio, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func pgNotFound(op, resource string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(op, resource)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}
