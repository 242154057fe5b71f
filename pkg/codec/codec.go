package codec

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// The encoding is raw (unpadded) base64url: the alphabet contains no '/',
// '+', or '=', so encoded values are safe in a URL path segment. The scheme
// is deliberately stateless so that client and server agree without a lookup
// table and encoded URLs can be bookmarked or shared.

// InvalidEncodingError indicates the input could not be reversed into a
// well-formed absolute URL.
type InvalidEncodingError struct {
	// Input is the encoded value that failed to decode.
	Input string

	// Cause is the underlying decode or parse error, if any.
	Cause error
}

// Error implements the error interface.
func (e *InvalidEncodingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid encoded URL %q: %v", e.Input, e.Cause)
	}
	return fmt.Sprintf("invalid encoded URL %q", e.Input)
}

// Unwrap returns the underlying error for error chain support.
func (e *InvalidEncodingError) Unwrap() error {
	return e.Cause
}

// UnsupportedSchemeError indicates the decoded URL uses a scheme other than
// http or https.
type UnsupportedSchemeError struct {
	// Scheme is the disallowed scheme.
	Scheme string
}

// Error implements the error interface.
func (e *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("unsupported URL scheme %q (only http and https are proxied)", e.Scheme)
}

// Encode transforms an absolute URL into a path-safe encoded segment.
// Encoding is deterministic and collision-free for distinct inputs:
// Decode(Encode(u)) == u for every syntactically valid absolute URL u.
func Encode(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}

// Decode reverses Encode. It returns an InvalidEncodingError if the input is
// not valid base64url or does not decode to a well-formed absolute URL, and
// an UnsupportedSchemeError if the decoded scheme is not http or https.
func Decode(encoded string) (string, error) {
	// Tolerate padded input from clients that use the padded variant.
	trimmed := strings.TrimRight(encoded, "=")

	raw, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return "", &InvalidEncodingError{Input: encoded, Cause: err}
	}

	decoded := string(raw)
	u, err := url.Parse(decoded)
	if err != nil {
		return "", &InvalidEncodingError{Input: encoded, Cause: err}
	}

	if !u.IsAbs() {
		return "", &InvalidEncodingError{Input: encoded, Cause: fmt.Errorf("decoded value %q is not an absolute URL", decoded)}
	}

	// Scheme is judged before the authority: a file: or javascript: URL is
	// an unsupported scheme, not a malformed encoding.
	switch u.Scheme {
	case "http", "https":
	default:
		return "", &UnsupportedSchemeError{Scheme: u.Scheme}
	}

	if u.Host == "" {
		return "", &InvalidEncodingError{Input: encoded, Cause: fmt.Errorf("decoded value %q has no host", decoded)}
	}

	return decoded, nil
}
