package common

// AuthorizationHeaderName carries "Bearer <access token>" on HTTP requests
// and in gRPC metadata.
const AuthorizationHeaderName = "authorization"

// RefreshCookieName is the http-only cookie holding the refresh token.
const RefreshCookieName = "refresh"
