package creds

import (
	"errors"
	"testing"
)

func TestResolveBodyOverrideWins(t *testing.T) {
	r := NewResolver(map[string]string{"oddsapi": "default-key"})

	key, err := r.Resolve("oddsapi", "override-key", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if key != "override-key" {
		t.Errorf("Body override should win, got %s", key)
	}
}

func TestResolveAuthHeaderOnlyWhereAllowed(t *testing.T) {
	r := NewResolver(map[string]string{}, "grok")

	key, err := r.Resolve("grok", "", "Bearer header-key")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if key != "header-key" {
		t.Errorf("Expected header credential, got %s", key)
	}

	// Providers not in the allow list must ignore the header.
	if _, err := r.Resolve("oddsapi", "", "Bearer header-key"); err == nil {
		t.Error("Header credential must not apply to other providers")
	}
}

func TestResolveDefaultFallback(t *testing.T) {
	r := NewResolver(map[string]string{"youcom": "yc-key"})

	key, err := r.Resolve("youcom", "", "")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if key != "yc-key" {
		t.Errorf("Expected configured default, got %s", key)
	}
}

func TestResolveMissing(t *testing.T) {
	r := NewResolver(map[string]string{"youcom": ""})

	_, err := r.Resolve("youcom", "", "")
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingError, got %v", err)
	}
	if missing.Provider != "youcom" {
		t.Errorf("Wrong provider in error: %s", missing.Provider)
	}
}

func TestResolveNeverCrossesProviders(t *testing.T) {
	r := NewResolver(map[string]string{"grok": "grok-key"})

	if _, err := r.Resolve("mistral", "", ""); err == nil {
		t.Error("A grok key must never satisfy a mistral call")
	}
}

func TestConfigured(t *testing.T) {
	r := NewResolver(map[string]string{"grok": "k", "poe": ""})

	if !r.Configured("grok") {
		t.Error("grok should report configured")
	}
	if r.Configured("poe") {
		t.Error("empty key should not report configured")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("supersecretkey1234"); got != "****1234" {
		t.Errorf("Redact kept too much or too little: %s", got)
	}
	if got := Redact("abc"); got != "****" {
		t.Errorf("Short secrets must be fully masked, got %s", got)
	}
}
