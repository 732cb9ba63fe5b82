// Package creds resolves the API credential to use for an upstream provider
// call. Resolution order: an explicit credential in the request body, then
// (for providers that allow it) the inbound Authorization header, then the
// process-wide default configured at startup.
package creds

import (
	"fmt"
	"strings"
)

// MissingError reports that no credential could be resolved for a provider.
// Handlers must surface it before any network call is attempted.
type MissingError struct {
	Provider string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("no API key configured for provider %q", e.Provider)
}

// Resolver holds the per-provider default credentials and the set of
// providers that accept the inbound Authorization header as a source.
// Credentials are provider-scoped; one provider's key is never substituted
// for another's.
type Resolver struct {
	defaults    map[string]string
	allowHeader map[string]bool
}

// NewResolver creates a resolver from startup configuration. defaults maps
// provider name to its configured key (empty values are treated as absent);
// headerProviders lists the providers allowed to take a credential from the
// inbound Authorization header.
func NewResolver(defaults map[string]string, headerProviders ...string) *Resolver {
	r := &Resolver{
		defaults:    make(map[string]string, len(defaults)),
		allowHeader: make(map[string]bool, len(headerProviders)),
	}
	for name, key := range defaults {
		if key != "" {
			r.defaults[name] = key
		}
	}
	for _, name := range headerProviders {
		r.allowHeader[name] = true
	}
	return r
}

// Resolve picks the credential for a provider call. bodyOverride is the
// credential supplied in the request body, authHeader the raw inbound
// Authorization header value; either may be empty.
func (r *Resolver) Resolve(provider, bodyOverride, authHeader string) (string, error) {
	if bodyOverride != "" {
		return bodyOverride, nil
	}
	if r.allowHeader[provider] {
		if key := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer")); key != "" {
			return key, nil
		}
	}
	if key := r.defaults[provider]; key != "" {
		return key, nil
	}
	return "", &MissingError{Provider: provider}
}

// Configured reports whether a default key exists for a provider, without
// exposing the key itself. Used by the health endpoint.
func (r *Resolver) Configured(provider string) bool {
	return r.defaults[provider] != ""
}

// Redact renders a credential safe for logs: at most the last four
// characters survive.
func Redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
