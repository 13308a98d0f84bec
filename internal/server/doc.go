// Package server provides HTTP routing, middleware, and the JSON API for the genre shelf service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # JSON API
//
// [APIHandler] serves the library endpoints. Every endpoint except /health
// expects a bearer token in the Authorization header and builds
// request-scoped library and catalog clients through a [ServiceFactory],
// so no genre data or credentials persist across requests.
//
// The categorization endpoint runs the full shelving pipeline per
// request: resolve artist genres in one catalog batch, enrich tracks,
// bucket by genre, and return the buckets largest first.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens
// through an [Exchanger] carrying the PKCE verifier, and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs authentication commands, a temporary HTTP server starts on localhost:3000, handles the callback,
// and shuts down after receiving the OAuth token. The serve command runs the JSON API as a long-lived process instead.
package server
