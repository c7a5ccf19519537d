// Package constraint turns storage-engine constraint failures into field-addressable
// validation errors.
//
// Engines report a violated unique/check constraint as an error kind plus a
// diagnostic message. Translate lifts the constraint name out of that message and
// looks it up in a caller-supplied Table. Names the table does not know are an
// unanticipated schema change, so they surface as internal errors, not as caller input problems.
package constraint

import (
	"errors"
	"regexp"

	"conduit/cmd/internal/apperr"
)

// Violation is the storage-error capability Translate consumes.
type Violation interface {
	error
	IsConstraintViolation() bool
	DiagnosticMessage() string
}

// Descriptor names the caller-facing field and message for one constraint.
type Descriptor struct {
	Field   string
	Message string
}

// Table maps constraint names to descriptors. It is built once at startup and only read afterwards.
// SQLite composite keys are keyed by the full column list, e.g. "follows.a, follows.b".
type Table map[string]Descriptor

// Translate applies the package-level Translate with t.
func (t Table) Translate(err error) error {
	return Translate(err, t)
}

// Name patterns, tried in order. Each has exactly one capture group: the constraint name.
var namePatterns = []*regexp.Regexp{
	// postgres: duplicate key value violates unique constraint "key_username"
	regexp.MustCompile(`constraint "([^"]+)"`),
	// sqlite: UNIQUE constraint failed: users.username
	// A composite key keeps every column, as SQLite prints it: "follows.a, follows.b".
	regexp.MustCompile(`(?:UNIQUE|CHECK|PRIMARY KEY) constraint failed: ([\w.]+(?:, [\w.]+)*)`),
	// mysql: Duplicate entry 'x' for key 'users.key_username'
	regexp.MustCompile(`Duplicate entry .+ for key '(?:\w+\.)?(\w+)'`),
}

// Translate inspects err for a constraint violation.
//
//   - nil stays nil.
//   - An error that is not a constraint violation is returned unchanged.
//   - A violation whose name is in table becomes *apperr.ValidationError.
//   - Any other violation becomes an internal *apperr.Error wrapping err.
func Translate(err error, table Table) error {
	if err == nil {
		return nil
	}

	v, ok := violationOf(err)
	if !ok || !v.IsConstraintViolation() {
		return err
	}

	name, ok := constraintName(v)
	if !ok {
		return &apperr.Error{Op: "constraint.translate", Kind: apperr.ErrInternal, Msg: "unparsable constraint violation", Err: err}
	}

	d, ok := table[name]
	if !ok {
		return &apperr.Error{Op: "constraint.translate", Kind: apperr.ErrInternal, Msg: "unmapped constraint " + name, Err: err}
	}
	return apperr.Validation(d.Field, d.Message)
}

// Name extracts the constraint name from a diagnostic message.
func Name(msg string) (string, bool) {
	for _, re := range namePatterns {
		if m := re.FindStringSubmatch(msg); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func constraintName(v Violation) (string, bool) {
	if name, ok := Name(v.DiagnosticMessage()); ok {
		return name, true
	}
	if n, ok := v.(interface{ ConstraintName() string }); ok && n.ConstraintName() != "" {
		return n.ConstraintName(), true
	}
	return "", false
}

func violationOf(err error) (Violation, bool) {
	var v Violation
	if errors.As(err, &v) {
		return v, true
	}
	return engineViolation(err)
}
