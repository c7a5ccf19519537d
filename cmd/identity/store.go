package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User is a registered account as the API shows it.
type User struct {
	ID       uuid.UUID
	Username string
	Email    string
	Bio      string
	Image    *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserAuth is a User together with its password record. Only the login path reads it.
type UserAuth struct {
	User
	PasswordHash string
}

// Profile is the public view of a user from some viewer's point of view.
type Profile struct {
	Username  string
	Bio       string
	Image     *string
	Following bool
}

// NewUser is a registration after validation and hashing.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Now          time.Time
}

// UserPatch is a partial update. Nil fields are left unchanged.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
	Bio          *string
	Image        *string
	Now          time.Time
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.PasswordHash == nil && p.Bio == nil && p.Image == nil
}

// Store is the user persistence boundary.
type Store interface {
	CreateUser(ctx context.Context, in NewUser) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserAuthByEmail(ctx context.Context, email string) (UserAuth, error)
	UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (User, error)

	// GetProfile resolves username; Following is computed for viewer when non-nil.
	GetProfile(ctx context.Context, username string, viewer *uuid.UUID) (Profile, error)

	// Follow is idempotent. Following yourself is apperr.ErrForbidden.
	Follow(ctx context.Context, follower uuid.UUID, username string) (Profile, error)
	Unfollow(ctx context.Context, follower uuid.UUID, username string) (Profile, error)

	Ping(ctx context.Context) error
}

func nowOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
