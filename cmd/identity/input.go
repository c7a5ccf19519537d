package identity

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"conduit/cmd/internal/apperr"
)

const (
	maxUsernameLen = 64
	maxEmailLen    = 254
	maxBioLen      = 4096
	maxImageLen    = 2048
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// NormalizeUsername trims surrounding space. Usernames are case-sensitive.
func NormalizeUsername(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail performs case-insensitive canonicalization.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CheckUsername adds every problem with a normalized username to v.
func CheckUsername(v *apperr.ValidationError, username string) {
	switch {
	case username == "":
		v.Add("username", "can't be blank")
	case utf8.RuneCountInString(username) > maxUsernameLen:
		v.Add("username", "is too long")
	case !usernameRe.MatchString(username):
		v.Add("username", "is invalid")
	}
}

// CheckEmail adds every problem with a normalized email to v.
func CheckEmail(v *apperr.ValidationError, email string) {
	if email == "" {
		v.Add("email", "can't be blank")
		return
	}
	if len(email) > maxEmailLen {
		v.Add("email", "is too long")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		v.Add("email", "is invalid")
	}
}

// CheckProfile validates the free-form profile fields of a patch.
func CheckProfile(v *apperr.ValidationError, bio, image *string) {
	if bio != nil && utf8.RuneCountInString(*bio) > maxBioLen {
		v.Add("bio", "is too long")
	}
	if image != nil && len(*image) > maxImageLen {
		v.Add("image", "is too long")
	}
}
