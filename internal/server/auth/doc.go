// Package auth signs and verifies the access/refresh token pair, hashes
// passwords and decides who may do what.
//
// Access tokens carry {sub, role} and are checked by signature and expiry
// only. Refresh tokens carry {sub, jti}; the jti must also match a live
// refresh record before the token is honoured, which is the session
// service's job.
package auth
