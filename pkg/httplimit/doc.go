// Package httplimit wires limiter stores into net/http handlers.
//
// It supplies the two collaborators the core leaves external: key
// extraction (KeyFunc and the By* helpers) and decision consumption
// (429 responses with a Retry-After header by default).
//
// Middleware applies one store to everything it wraps. Router applies
// per-path rules, each with its own independent store, and can be
// configured from YAML via LoadRules.
package httplimit
