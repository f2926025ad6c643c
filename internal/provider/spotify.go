package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/musicrelay/spotify-playlist-proxy/internal/retry"
)

const (
	// Spotify Web API endpoints
	DefaultAuthURL    = "https://accounts.spotify.com/authorize"
	DefaultTokenURL   = "https://accounts.spotify.com/api/token"
	DefaultAPIBaseURL = "https://api.spotify.com/v1"

	// DefaultScope covers the profile access the playlist fetch needs.
	DefaultScope = "user-read-private user-read-email"

	playlistsPath = "/me/playlists"

	// HTTP request timeout per outbound call
	defaultTimeout = 10 * time.Second
)

// SpotifyConfig holds the Spotify client identity and endpoints.
type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	AuthURL      string
	TokenURL     string
	APIBaseURL   string
}

// Spotify implements the Provider interface for the Spotify Web API.
// All outbound calls run through the retry policy; only the terminal
// outcome of a call surfaces to callers.
type Spotify struct {
	client     *http.Client
	oauth      *oauth2.Config
	policy     *retry.Policy
	tokenURL   string
	apiBaseURL string
	now        func() time.Time
}

// SpotifyOption configures the Spotify provider.
type SpotifyOption func(*Spotify)

// WithHTTPClient replaces the provider's HTTP client.
func WithHTTPClient(client *http.Client) SpotifyOption {
	return func(s *Spotify) {
		s.client = client
	}
}

// WithClock replaces the provider's time source, used by tests to pin
// token expiry computation.
func WithClock(now func() time.Time) SpotifyOption {
	return func(s *Spotify) {
		s.now = now
	}
}

// NewSpotify creates a Spotify provider. Empty endpoint fields fall back
// to the public Spotify endpoints.
func NewSpotify(cfg SpotifyConfig, policy *retry.Policy, opts ...SpotifyOption) (*Spotify, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("redirect URI is required")
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Scope == "" {
		cfg.Scope = DefaultScope
	}
	if policy == nil {
		policy = retry.New()
	}

	s := &Spotify{
		client: &http.Client{Timeout: defaultTimeout},
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       strings.Split(cfg.Scope, " "),
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		policy:     policy,
		tokenURL:   cfg.TokenURL,
		apiBaseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AuthCodeURL returns the Spotify authorization URL for the login
// redirect. show_dialog forces the consent screen so a user can switch
// accounts.
func (s *Spotify) AuthCodeURL() string {
	return s.oauth.AuthCodeURL("", oauth2.SetAuthURLParam("show_dialog", "true"))
}

// ExchangeCode exchanges an authorization code for tokens.
func (s *Spotify) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {s.oauth.RedirectURL},
		"client_id":     {s.oauth.ClientID},
		"client_secret": {s.oauth.ClientSecret},
	}

	body, err := s.postToken(ctx, data, exchangeGrant)
	if err != nil {
		return nil, err
	}

	fields, err := parseTokenFields(body)
	if err != nil {
		return nil, err
	}

	// A code exchange must yield a full token set; no field is defaulted.
	if fields.RefreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token", ErrMissingField)
	}

	return &Token{
		AccessToken:  fields.AccessToken,
		RefreshToken: fields.RefreshToken,
		ExpiresAt:    s.now().Unix() + fields.ExpiresIn,
	}, nil
}

// Refresh obtains a new access token using a refresh token. Spotify may
// omit a new refresh token from the response; the prior one stays valid
// and is retained rather than dropped.
func (s *Spotify) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {s.oauth.ClientID},
		"client_secret": {s.oauth.ClientSecret},
	}

	body, err := s.postToken(ctx, data, refreshGrant)
	if err != nil {
		return nil, err
	}

	fields, err := parseTokenFields(body)
	if err != nil {
		return nil, err
	}

	newRefresh := fields.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}

	return &Token{
		AccessToken:  fields.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    s.now().Unix() + fields.ExpiresIn,
	}, nil
}

// FetchPlaylists retrieves the user's playlists as a raw JSON document.
func (s *Spotify) FetchPlaylists(ctx context.Context, accessToken string) (json.RawMessage, error) {
	endpoint := s.apiBaseURL + playlistsPath

	resp, err := s.policy.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating playlists request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		return s.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading playlists response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to parsing
	case retry.Transient(resp.StatusCode):
		return nil, fmt.Errorf("%w: status %d after retries", ErrProviderUnavailable, resp.StatusCode)
	default:
		// Includes 401 for a token the provider no longer accepts
		// despite passing the local expiry check.
		return nil, fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: playlists payload is not valid JSON", ErrMalformedResponse)
	}

	return json.RawMessage(body), nil
}

type grantKind int

const (
	exchangeGrant grantKind = iota
	refreshGrant
)

// postToken sends a form-encoded request to the token endpoint through the
// retry policy and returns the response body on success.
func (s *Spotify) postToken(ctx context.Context, data url.Values, kind grantKind) ([]byte, error) {
	encoded := data.Encode()

	resp, err := s.policy.Do(ctx, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(encoded))
		if err != nil {
			return nil, fmt.Errorf("creating token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return s.client.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if retry.Transient(resp.StatusCode) {
			return nil, fmt.Errorf("%w: status %d after retries", ErrProviderUnavailable, resp.StatusCode)
		}
		if kind == refreshGrant {
			return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidRefreshToken, resp.StatusCode, tokenError(body))
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderRejected, resp.StatusCode, tokenError(body))
	}

	return body, nil
}

type tokenFields struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// parseTokenFields validates a token endpoint response. access_token and
// expires_in are mandatory for every grant. expires_in is accepted as a
// JSON number or a numeric string; Spotify has served both.
func parseTokenFields(body []byte) (*tokenFields, error) {
	var raw struct {
		AccessToken  string          `json:"access_token"`
		RefreshToken string          `json:"refresh_token"`
		ExpiresIn    json.RawMessage `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if raw.AccessToken == "" {
		return nil, fmt.Errorf("%w: access_token", ErrMissingField)
	}
	if len(raw.ExpiresIn) == 0 {
		return nil, fmt.Errorf("%w: expires_in", ErrMissingField)
	}

	expiresIn, err := strconv.ParseInt(strings.Trim(string(raw.ExpiresIn), `"`), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expires_in %s is not numeric", ErrMalformedResponse, raw.ExpiresIn)
	}

	return &tokenFields{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// tokenError extracts the provider's error code from a token endpoint
// failure body for diagnostics.
func tokenError(body []byte) string {
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return "unrecognized error response"
	}
	if errResp.ErrorDescription != "" {
		return errResp.Error + ": " + errResp.ErrorDescription
	}
	return errResp.Error
}
