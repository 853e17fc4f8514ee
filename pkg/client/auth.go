package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// newTokenSource builds a client-credentials token source. The token endpoint
// is discovered from the issuer when no TokenURL is configured. base is used
// for discovery and token requests.
func newTokenSource(ctx context.Context, cfg *Config, base *http.Client) (oauth2.TokenSource, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to discover token endpoint for issuer %s: %w", cfg.Issuer, err)
		}
		tokenURL = provider.Endpoint().TokenURL
	}

	ccConfig := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       cfg.Scopes,
	}

	// The token source outlives ctx, so detach it from cancellation.
	tsCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, base)
	return oauth2.ReuseTokenSource(nil, ccConfig.TokenSource(tsCtx)), nil
}

// Token returns the current OAuth access token. It fails for clients that
// authenticate with an API key.
func (c *Client) Token(ctx context.Context) (*oauth2.Token, error) {
	if c.tokenSource == nil {
		return nil, fmt.Errorf("client does not use OAuth: %w", ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token: %w", err)
	}

	return token, nil
}
