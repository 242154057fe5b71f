// Package codec implements the reversible, path-safe URL encoding used by
// the proxy. Browsers encode a target URL into a same-origin path segment
// (/service/{encoded}) and the server decodes it back before forwarding.
//
// The transform is pure and stateless: no server-side lookup table is
// involved, so encoded values survive bookmarking and sharing.
package codec
