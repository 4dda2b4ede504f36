// Package tba is a client for The Blue Alliance API v3.
//
// Every request passes through an interceptor that attaches the auth key and
// the fixed headers the API expects. Requests fail with ErrAuthTokenMissing
// before reaching the network when no key is configured. Bodies are decoded
// verbatim into strings or byte slices, or from snake_case JSON into Go values.
//
// Holder provides the lazily built shared Client.
package tba
