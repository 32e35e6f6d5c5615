package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// IdentityFromRequest derives the rate-limit identity from the caller's
// best-effort public address: the first forwarded-for entry, else the
// direct connection address, else a shared "unknown" bucket. All unknown
// callers share one quota; that weakness is accepted.
func IdentityFromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return "ip:" + first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return "ip:" + realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return "ip:" + host
	}
	return "ip:unknown"
}
