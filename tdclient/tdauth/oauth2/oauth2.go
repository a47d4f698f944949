// Package oauth2 provides OAuth2 bearer-token authentication for the
// tdclient job API client, for endpoints fronted by an OAuth2 gateway
// instead of accepting API keys. It is a separate package to keep the
// oauth2 dependency opt-in.
package oauth2

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethanyzhang/tdq/tdclient"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// --- Static Token ---

// NewStaticTokenOption returns a RequestOption that sets a static Bearer token
// on every request. Use this for pre-obtained JWTs or long-lived access tokens.
func NewStaticTokenOption(token string) tdclient.RequestOption {
	return func(req *http.Request) {
		req.Header.Set(tdclient.AuthorizationHeader, "Bearer "+token)
	}
}

// --- Client Credentials Flow ---

// Config holds OAuth2 client credentials configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string   // Token endpoint URL
	Scopes       []string // Optional scopes
}

// Enabled reports whether any client-credentials setting is present.
func (c *Config) Enabled() bool {
	return c.ClientID != "" || c.ClientSecret != "" || c.TokenURL != ""
}

// validate checks that required fields are set.
func (c *Config) validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("oauth2: ClientID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("oauth2: ClientSecret is required")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("oauth2: TokenURL is required")
	}
	return nil
}

// ParseScopes splits a comma separated scope list, dropping blanks.
func ParseScopes(scopes string) []string {
	var out []string
	for _, s := range strings.Split(scopes, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// NewRequestOption creates a RequestOption that obtains and refreshes
// tokens with the client credentials flow. Token caching and refresh are
// handled by the oauth2 token source.
func NewRequestOption(cfg Config) (tdclient.RequestOption, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ccCfg := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}

	return TokenSource(ccCfg.TokenSource(context.Background())), nil
}

// TokenSource wraps an oauth2.TokenSource as a tdclient.RequestOption.
// A token error leaves the request without a bearer token; the service
// then answers 401, which surfaces as an *tdclient.ErrorResponse.
func TokenSource(ts oauth2.TokenSource) tdclient.RequestOption {
	return func(req *http.Request) {
		token, err := ts.Token()
		if err != nil {
			log.Debug().Err(err).Msg("failed to obtain oauth2 token")
			return
		}
		token.SetAuthHeader(req)
	}
}
