package model

import "context"

// ProviderUserInfo is the identity an external provider vouches for after
// a successful authorization-code exchange.
type ProviderUserInfo struct {
	Key   ProviderKey
	Name  ProviderName
	Email Email
}

// OAuthExchanger turns an authorization code into the provider's view of
// the user. Implementations make a network call and must bound it with a
// timeout, surfacing ErrUpstreamUnavailable on failure.
type OAuthExchanger interface {
	Exchange(ctx context.Context, code string) (ProviderUserInfo, error)
}
