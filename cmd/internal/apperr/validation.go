package apperr

import (
	"sort"
	"strings"
)

// ValidationError is a per-field set of caller-facing messages.
// Messages accumulate: adding to an existing field appends, never replaces.
type ValidationError struct {
	Fields map[string][]string
}

// Validation returns a ValidationError holding a single field message.
func Validation(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// Add appends msg to field.
func (v *ValidationError) Add(field, msg string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], msg)
}

// Merge appends every message of other into v.
func (v *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for field, msgs := range other.Fields {
		for _, m := range msgs {
			v.Add(field, m)
		}
	}
}

// Empty reports whether no field has a message.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// Err returns v as an error, or nil when it holds nothing.
func (v *ValidationError) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(ErrValidation.Error())
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteByte(' ')
		b.WriteString(strings.Join(v.Fields[k], ", "))
	}
	return b.String()
}

func (v *ValidationError) Unwrap() error { return ErrValidation }
