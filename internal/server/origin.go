package server

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may use the API. Requests
// without an Origin header (curl, the CLI, native apps) are always allowed,
// as are same-origin requests. Anything else must be listed.
type OriginPolicy struct {
	allowed map[string]bool
}

// NewOriginPolicy allows the given origins, e.g. "chrome-extension://<id>".
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]bool, len(origins))}
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			p.allowed[strings.ToLower(o)] = true
		}
	}
	return p
}

// Allow reports whether r may be served.
func (p *OriginPolicy) Allow(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if p != nil && p.allowed[strings.ToLower(origin)] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Middleware rejects requests from origins the policy does not allow.
func (p *OriginPolicy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.Allow(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
