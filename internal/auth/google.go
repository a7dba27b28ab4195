// Package auth verifies third-party identity assertions. The only provider
// is Google Sign-In: the opaque ID token from the client is checked against
// Google's public tokeninfo endpoint rather than decoded locally, so key
// rotation is the provider's problem.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tobiasmaugus/vendas-api/internal/config"
)

// GoogleClaims is the subset of the tokeninfo payload the application uses
type GoogleClaims struct {
	Sub   string `json:"sub"`
	Aud   string `json:"aud"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Exp   string `json:"exp"`
}

// GoogleVerifier validates Google ID tokens against the tokeninfo endpoint.
// The endpoint URL is configurable so tests can point it at a local server.
type GoogleVerifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
}

// NewGoogleVerifier creates a verifier for the configured OAuth client
func NewGoogleVerifier(cfg *config.GoogleConfig) *GoogleVerifier {
	return &GoogleVerifier{
		clientID:     cfg.ClientID,
		tokenInfoURL: cfg.TokenInfoURL,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify checks the ID token with Google and returns its claims.
// The token is rejected when the endpoint does not recognise it, when the
// audience is not this application's client id, or when it is expired.
func (v *GoogleVerifier) Verify(ctx context.Context, idToken string) (*GoogleClaims, error) {
	if idToken == "" {
		return nil, fmt.Errorf("empty id token")
	}

	endpoint := v.tokenInfoURL + "?id_token=" + url.QueryEscape(idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling tokeninfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo endpoint returned status %d", resp.StatusCode)
	}

	var claims GoogleClaims
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("decoding tokeninfo response: %w", err)
	}

	if claims.Sub == "" {
		return nil, fmt.Errorf("tokeninfo response has no subject")
	}
	if v.clientID != "" && claims.Aud != v.clientID {
		return nil, fmt.Errorf("token audience mismatch")
	}
	if exp, err := strconv.ParseInt(claims.Exp, 10, 64); err == nil {
		if time.Now().After(time.Unix(exp, 0)) {
			return nil, fmt.Errorf("token expired")
		}
	}

	return &claims, nil
}
