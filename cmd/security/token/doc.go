// Package token issues and verifies the stateless session tokens that carry caller identity.
//
// A token is a compact JWS signed with HMAC-SHA384 over the claims {user_id, exp}.
// There is no server-side session record: the token is the session.
//
// Verification order matters:
//   - the MAC is checked over the raw signing input before anything is decoded;
//   - claims are parsed only after the MAC matched;
//   - expiry is compared exactly against the codec clock (no skew window).
//
// Environment:
//   - CONDUIT_HMAC_KEY (fallback HMAC_KEY): the shared secret. Rotating it invalidates every token.
package token
