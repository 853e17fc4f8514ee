package auth

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cdf-forge/cdfx/internal/cmd/base"
	"github.com/cdf-forge/cdfx/pkg/client"
)

type InspectCommand struct {
	*base.Command
}

func (c *InspectCommand) Synopsis() string {
	return "Fetch an access token and print its claims"
}

func (c *InspectCommand) Help() string {
	return `Usage: cdfx auth inspect [options]

  This command fetches an access token with the configured client
  credentials and prints its claims. The token signature is not verified;
  the output is meant for checking scopes, audience and expiry.` +
		c.Flags().Help()
}

func (c *InspectCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("inspect", flag.ContinueOnError))
	c.ConnectionFlags(f)
	return f
}

// tokenInfo is the printed form of a token.
type tokenInfo struct {
	TokenType string        `json:"tokenType"`
	Expiry    time.Time     `json:"expiry,omitzero"`
	Claims    jwt.MapClaims `json:"claims,omitempty"`
	Opaque    bool          `json:"opaque,omitempty"`
}

func (c *InspectCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		return c.Errorf("error parsing flags: %v", err)
	}

	env, err := c.Setup()
	if err != nil {
		return c.Errorf("error initializing client: %v", err)
	}
	defer c.Finish(env)

	token, err := env.Client.Token(c.Ctx())
	if errors.Is(err, client.ErrNotConfigured) {
		return c.Errorf("auth inspect needs OAuth client credentials, the config uses an API key")
	}
	if err != nil {
		return c.Errorf("error fetching token: %v", err)
	}

	info := tokenInfo{
		TokenType: token.Type(),
		Expiry:    token.Expiry,
	}

	claims, err := Claims(token.AccessToken)
	if err != nil {
		c.Log.Debug("access token is not a JWT", "error", err)
		info.Opaque = true
	} else {
		info.Claims = claims
	}

	if err := c.Output(info); err != nil {
		return c.Errorf("%v", err)
	}
	return 0
}

// Claims decodes the claims of a JWT without verifying its signature.
func Claims(accessToken string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("error decoding token: %w", err)
	}
	return claims, nil
}
