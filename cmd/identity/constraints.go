package identity

import "conduit/cmd/internal/constraint"

// Constraints maps the uniqueness constraints of both schemas to caller-facing fields.
// Postgres reports the constraint name; SQLite reports table.column.
var Constraints = constraint.Table{
	"key_username":   {Field: "username", Message: "username taken"},
	"key_email":      {Field: "email", Message: "email taken"},
	"users.username": {Field: "username", Message: "username taken"},
	"users.email":    {Field: "email", Message: "email taken"},
}
