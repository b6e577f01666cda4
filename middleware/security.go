package middleware

import (
	"net/http"
	"strconv"
)

// SecurityHeadersOptions configures SecurityHeaders. An empty string
// disables the corresponding header.
type SecurityHeadersOptions struct {
	XFrameOptions                 string
	XContentTypeOptions           string
	ReferrerPolicy                string
	XDNSPrefetchControl           string
	XDownloadOptions              string
	XPermittedCrossDomainPolicies string
	CrossOriginOpenerPolicy       string
	CrossOriginResourcePolicy     string
	OriginAgentCluster            string

	// XSSProtection "0" turns off the legacy filter, which can itself be abused.
	XSSProtection string

	// HSTSMaxAge in seconds; sent only over TLS. 0 disables HSTS.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	// ContentSecurityPolicy is off by default: the public pages load fonts
	// and icons from third-party CDNs.
	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions mirrors the header set of the helmet package
// with the content security policy disabled.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:                 "SAMEORIGIN",
		XContentTypeOptions:           "nosniff",
		ReferrerPolicy:                "no-referrer",
		XDNSPrefetchControl:           "off",
		XDownloadOptions:              "noopen",
		XPermittedCrossDomainPolicies: "none",
		CrossOriginOpenerPolicy:       "same-origin",
		CrossOriginResourcePolicy:     "same-origin",
		OriginAgentCluster:            "?1",
		XSSProtection:                 "0",
		HSTSMaxAge:                    15552000, // 180 days
		HSTSIncludeSubDomains:         true,
	}
}

// SecurityHeaders sets the configured headers on every response.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := [...]struct{ name, value string }{
		{"X-Frame-Options", opts.XFrameOptions},
		{"X-Content-Type-Options", opts.XContentTypeOptions},
		{"Referrer-Policy", opts.ReferrerPolicy},
		{"X-DNS-Prefetch-Control", opts.XDNSPrefetchControl},
		{"X-Download-Options", opts.XDownloadOptions},
		{"X-Permitted-Cross-Domain-Policies", opts.XPermittedCrossDomainPolicies},
		{"Cross-Origin-Opener-Policy", opts.CrossOriginOpenerPolicy},
		{"Cross-Origin-Resource-Policy", opts.CrossOriginResourcePolicy},
		{"Origin-Agent-Cluster", opts.OriginAgentCluster},
		{"X-XSS-Protection", opts.XSSProtection},
		{"Content-Security-Policy", opts.ContentSecurityPolicy},
		{"Permissions-Policy", opts.PermissionsPolicy},
	}

	hsts := ""
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if opts.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, s := range static {
				if s.value != "" {
					h.Set(s.name, s.value)
				}
			}
			// Plain-HTTP development must not pin the browser to HTTPS.
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecureDefaults is SecurityHeaders(DefaultSecurityHeadersOptions()).
func SecureDefaults() func(next http.Handler) http.Handler {
	return SecurityHeaders(DefaultSecurityHeadersOptions())
}
