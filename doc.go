// Package auth resolves the authentication state of an incoming request.
//
// A request is reduced to a CredentialBundle (session cookie, Authorization
// header, client UAT cookie and the host/origin headers). The Resolver then
// classifies the bundle into exactly one AuthStatus:
//
//   - signed_in: a token verified and carried both sub and sid claims.
//   - signed_out: no token, or a token that failed verification.
//   - interstitial: the server cannot decide safely (cross origin cookies,
//     an ambiguous proxy setup, a stale cookie or a verification timeout)
//     and the client should refresh its session before retrying.
//   - unknown: credentials could not be read at all.
//
// The bearer token always wins over the session cookie. Verification is
// delegated to a TokenVerifier; JWTVerifier covers HMAC keys, static key
// functions and remote JWKS endpoints.
//
// Signed in results can be hydrated with user and session records through a
// Backend. Each lookup fails independently and never changes the status.
//
// Interstitial boundaries are owned by an InterstitialPolicy. DefaultPolicy
// covers the common cookie checks and can be replaced per Resolver.
package auth
