package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenEqual reports whether got matches want using a constant-time
// comparison. Unequal-length inputs fail immediately, before any byte is
// compared, so the extra subtle.ConstantTimeCompare call never runs over
// mismatched lengths (§8 "returns false for any inputs of unequal length
// without reading beyond the shorter").
func TokenEqual(got, want string) bool {
	if len(got) != len(want) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// ExtractGatewayToken pulls the bootstrap token from an inbound request in
// the priority order the gateway's auth mode defines (§4.8):
//  1. Authorization: Bearer <token>
//  2. a "token" query parameter on the request URL
//  3. X-Haya-Token header — only honored when allowInsecureHeader is true,
//     which the caller sets when the connection has no TLS and the peer is
//     loopback.
func ExtractGatewayToken(r *http.Request, allowInsecureHeader bool) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if allowInsecureHeader {
		if token := r.Header.Get("X-Haya-Token"); token != "" {
			return token
		}
	}
	return ""
}
