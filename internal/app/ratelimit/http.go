package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"time"
)

// KeyFunc extracts the client identity from a request.
type KeyFunc func(r *http.Request) string

// RemoteIPKey uses the request's RemoteAddr without the port. Put chi's
// RealIP middleware in front of it only when a trusted proxy sets
// X-Forwarded-For / X-Real-IP; otherwise clients could pick their own key.
func RemoteIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP rewrites RemoteAddr to a bare IP.
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}

// SetHeaders writes the IETF draft rate-limit headers (RateLimit-Limit,
// RateLimit-Remaining, RateLimit-Reset, RateLimit-Policy) and Retry-After
// when the request was rejected.
func SetHeaders(h http.Header, d Decision, now time.Time) {
	reset := int64(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if reset < 0 {
		reset = 0
	}
	h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))
	h.Set("RateLimit-Policy", strconv.Itoa(d.Limit)+";w="+strconv.FormatInt(int64(d.Window/time.Second), 10))

	if !d.Allowed {
		retry := reset
		if retry < 1 {
			retry = 1
		}
		h.Set("Retry-After", strconv.FormatInt(retry, 10))
	}
}
