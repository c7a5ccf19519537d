// Package authapi serves the user, login and profile endpoints of the conduit API.
//
// Request and response bodies follow the RealWorld shape: {"user": {...}} and
// {"profile": {...}}. Field validation failures are 422 {"errors": {field: [msg]}};
// every other failure is {"error": {"code", "message"}}.
package authapi
