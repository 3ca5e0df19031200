package model

import "strings"

// ProviderName labels an external identity provider.
type ProviderName string

// ProviderGoogle is the only provider currently wired in.
const ProviderGoogle ProviderName = "google"

// ProviderKey is the provider-issued subject identifier for an account.
type ProviderKey string

// NewProviderKey validates a provider-issued subject id.
func NewProviderKey(raw string) (ProviderKey, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", newValidationError("provider key", "cannot be empty")
	}
	return ProviderKey(v), nil
}

func (n ProviderName) String() string { return string(n) }
func (k ProviderKey) String() string  { return string(k) }
