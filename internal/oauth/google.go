package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/filmdb/auth-service/internal/model"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var _ model.OAuthExchanger = (*GoogleExchanger)(nil)

// GoogleExchanger implements model.OAuthExchanger for Google OAuth2. Both
// upstream calls share one bounded timeout; any upstream failure surfaces
// as model.ErrUpstreamUnavailable.
type GoogleExchanger struct {
	clientID     string
	clientSecret string
	redirectURL  string
	tokenURL     string
	userinfoURL  string
	httpClient   *http.Client
}

// NewGoogleExchanger creates a new Google OAuth2 exchanger.
func NewGoogleExchanger(clientID, clientSecret, redirectURL string, timeout time.Duration) *GoogleExchanger {
	return &GoogleExchanger{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		tokenURL:     googleTokenURL,
		userinfoURL:  googleUserinfoURL,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Exchange trades an authorization code for the Google user's identity.
func (g *GoogleExchanger) Exchange(ctx context.Context, code string) (model.ProviderUserInfo, error) {
	accessToken, err := g.exchangeCode(ctx, code)
	if err != nil {
		return model.ProviderUserInfo{}, err
	}

	return g.fetchUserInfo(ctx, accessToken)
}

func (g *GoogleExchanger) exchangeCode(ctx context.Context, code string) (string, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {g.clientID},
		"client_secret": {g.clientSecret},
		"redirect_uri":  {g.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: token exchange failed (%d): %s", model.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", model.ErrUpstreamUnavailable, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token in response", model.ErrUpstreamUnavailable)
	}

	return tokenResp.AccessToken, nil
}

func (g *GoogleExchanger) fetchUserInfo(ctx context.Context, accessToken string) (model.ProviderUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userinfoURL, nil)
	if err != nil {
		return model.ProviderUserInfo{}, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return model.ProviderUserInfo{}, fmt.Errorf("%w: fetch userinfo: %v", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return model.ProviderUserInfo{}, fmt.Errorf("%w: userinfo fetch failed (%d): %s", model.ErrUpstreamUnavailable, resp.StatusCode, string(body))
	}

	var profile struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return model.ProviderUserInfo{}, fmt.Errorf("%w: decode userinfo: %v", model.ErrUpstreamUnavailable, err)
	}

	key, err := model.NewProviderKey(profile.ID)
	if err != nil {
		return model.ProviderUserInfo{}, fmt.Errorf("provider returned invalid subject id: %w", err)
	}
	email, err := model.NewEmail(profile.Email)
	if err != nil {
		return model.ProviderUserInfo{}, fmt.Errorf("provider returned invalid email: %w", err)
	}

	return model.ProviderUserInfo{
		Key:   key,
		Name:  model.ProviderGoogle,
		Email: email,
	}, nil
}
