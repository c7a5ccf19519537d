// Package password hashes and verifies account passwords with Argon2id.
//
// Records use the PHC string format and carry their own cost and salt, so
// verification does not depend on the current configuration beyond anti-DoS bounds.
//
// Hashing is deliberately slow. Request handlers use Hasher, which runs every
// derivation on a bounded Pool sized independently of HTTP concurrency; a full
// pool or an overrun deadline surfaces as a transient internal error.
//
// Security notes:
// - Records are treated as untrusted input during Verify and are validated accordingly.
// - Plaintext passwords are never logged or stored.
package password
