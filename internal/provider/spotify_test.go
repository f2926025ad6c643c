package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/musicrelay/spotify-playlist-proxy/internal/retry"
)

func newTestSpotify(t *testing.T, tokenURL, apiBaseURL string, opts ...SpotifyOption) *Spotify {
	t.Helper()

	policy := retry.New(retry.WithMaxAttempts(3), retry.WithBackoff(0, 0))
	s, err := NewSpotify(SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://localhost:8080/callback",
		AuthURL:      "http://localhost:9999/authorize",
		TokenURL:     tokenURL,
		APIBaseURL:   apiBaseURL,
	}, policy, opts...)
	if err != nil {
		t.Fatalf("NewSpotify() error = %v", err)
	}
	return s
}

func fixedClock(sec int64) SpotifyOption {
	return WithClock(func() time.Time { return time.Unix(sec, 0) })
}

func TestAuthCodeURL(t *testing.T) {
	s := newTestSpotify(t, "http://localhost:9999/token", "http://localhost:9999/v1")

	raw := s.AuthCodeURL()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthCodeURL() returned unparseable URL: %v", err)
	}

	q := u.Query()
	want := map[string]string{
		"client_id":     "client-id",
		"response_type": "code",
		"scope":         "user-read-private user-read-email",
		"redirect_uri":  "http://localhost:8080/callback",
		"show_dialog":   "true",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("query param %s = %q, want %q", k, got, v)
		}
	}
	if q.Has("state") {
		t.Errorf("unexpected state param %q", q.Get("state"))
	}
}

func TestExchangeCode(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		// expires_in arrives as a string here; both forms must parse.
		if _, err := w.Write([]byte(`{"access_token":"a1","refresh_token":"r1","expires_in":"3600"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	s := newTestSpotify(t, srv.URL, srv.URL, fixedClock(1000))

	token, err := s.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}

	want := &Token{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: 4600}
	if diff := cmp.Diff(want, token); diff != "" {
		t.Errorf("ExchangeCode() mismatch (-want +got):\n%s", diff)
	}

	wantForm := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {"auth-code"},
		"redirect_uri":  {"http://localhost:8080/callback"},
		"client_id":     {"client-id"},
		"client_secret": {"client-secret"},
	}
	if diff := cmp.Diff(wantForm, gotForm); diff != "" {
		t.Errorf("token request form mismatch (-want +got):\n%s", diff)
	}
}

func TestExchangeCodeMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing access_token", `{"refresh_token":"r1","expires_in":3600}`},
		{"missing refresh_token", `{"access_token":"a1","expires_in":3600}`},
		{"missing expires_in", `{"access_token":"a1","refresh_token":"r1"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("writing response: %v", err)
				}
			}))
			defer srv.Close()

			s := newTestSpotify(t, srv.URL, srv.URL)

			_, err := s.ExchangeCode(context.Background(), "auth-code")
			if !errors.Is(err, ErrMissingField) {
				t.Errorf("ExchangeCode() error = %v, want ErrMissingField", err)
			}
		})
	}
}

func TestExchangeCodeMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>nope</html>`},
		{"non-numeric expires_in", `{"access_token":"a1","refresh_token":"r1","expires_in":"soon"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("writing response: %v", err)
				}
			}))
			defer srv.Close()

			s := newTestSpotify(t, srv.URL, srv.URL)

			_, err := s.ExchangeCode(context.Background(), "auth-code")
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("ExchangeCode() error = %v, want ErrMalformedResponse", err)
			}
		})
	}
}

func TestExchangeCodeRejectedNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		if _, err := w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid authorization code"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	s := newTestSpotify(t, srv.URL, srv.URL)

	_, err := s.ExchangeCode(context.Background(), "reused-code")
	if !errors.Is(err, ErrProviderRejected) {
		t.Errorf("ExchangeCode() error = %v, want ErrProviderRejected", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (4xx must not be retried)", attempts)
	}
}

func TestExchangeCodeUnavailableAfterRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestSpotify(t, srv.URL, srv.URL)

	_, err := s.ExchangeCode(context.Background(), "auth-code")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("ExchangeCode() error = %v, want ErrProviderUnavailable", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRefresh(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantRefresh string
	}{
		{
			name:        "new refresh token replaces stored one",
			body:        `{"access_token":"a2","refresh_token":"r2","expires_in":3600}`,
			wantRefresh: "r2",
		},
		{
			name:        "omitted refresh token is retained",
			body:        `{"access_token":"a2","expires_in":3600}`,
			wantRefresh: "r1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotForm url.Values
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("ParseForm() error = %v", err)
				}
				gotForm = r.PostForm
				w.Header().Set("Content-Type", "application/json")
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("writing response: %v", err)
				}
			}))
			defer srv.Close()

			s := newTestSpotify(t, srv.URL, srv.URL, fixedClock(1000))

			token, err := s.Refresh(context.Background(), "r1")
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}

			want := &Token{AccessToken: "a2", RefreshToken: tt.wantRefresh, ExpiresAt: 4600}
			if diff := cmp.Diff(want, token); diff != "" {
				t.Errorf("Refresh() mismatch (-want +got):\n%s", diff)
			}

			if got := gotForm.Get("grant_type"); got != "refresh_token" {
				t.Errorf("grant_type = %q, want refresh_token", got)
			}
			if gotForm.Has("code") || gotForm.Has("redirect_uri") {
				t.Errorf("refresh request carries exchange-only params: %v", gotForm)
			}
		})
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		if _, err := w.Write([]byte(`{"error":"invalid_grant"}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	s := newTestSpotify(t, srv.URL, srv.URL)

	_, err := s.Refresh(context.Background(), "revoked")
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh() error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestFetchPlaylists(t *testing.T) {
	const payload = `{"items":[{"id":"p1","name":"Road Trip"}],"total":1}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/playlists" {
			t.Errorf("path = %q, want /me/playlists", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(payload)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	s := newTestSpotify(t, srv.URL, srv.URL)

	got, err := s.FetchPlaylists(context.Background(), "tok")
	if err != nil {
		t.Fatalf("FetchPlaylists() error = %v", err)
	}
	if string(got) != payload {
		t.Errorf("FetchPlaylists() = %s, want %s", got, payload)
	}
}

func TestFetchPlaylistsErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      error
		wantAttempts int
	}{
		{
			name:         "unauthorized is rejected without retry",
			status:       http.StatusUnauthorized,
			body:         `{"error":{"status":401,"message":"The access token expired"}}`,
			wantErr:      ErrProviderRejected,
			wantAttempts: 1,
		},
		{
			name:         "rate limited until exhausted",
			status:       http.StatusTooManyRequests,
			body:         `{}`,
			wantErr:      ErrProviderUnavailable,
			wantAttempts: 3,
		},
		{
			name:         "server errors until exhausted",
			status:       http.StatusBadGateway,
			body:         `{}`,
			wantErr:      ErrProviderUnavailable,
			wantAttempts: 3,
		},
		{
			name:         "invalid payload",
			status:       http.StatusOK,
			body:         `{"items": [`,
			wantErr:      ErrMalformedResponse,
			wantAttempts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts++
				w.WriteHeader(tt.status)
				if _, err := w.Write([]byte(tt.body)); err != nil {
					t.Errorf("writing response: %v", err)
				}
			}))
			defer srv.Close()

			s := newTestSpotify(t, srv.URL, srv.URL)

			_, err := s.FetchPlaylists(context.Background(), "tok")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("FetchPlaylists() error = %v, want %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestNewSpotifyValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SpotifyConfig
	}{
		{"missing client id", SpotifyConfig{ClientSecret: "s", RedirectURI: "u"}},
		{"missing client secret", SpotifyConfig{ClientID: "c", RedirectURI: "u"}},
		{"missing redirect uri", SpotifyConfig{ClientID: "c", ClientSecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSpotify(tt.cfg, nil); err == nil {
				t.Error("NewSpotify() error = nil, want validation error")
			}
		})
	}
}

func TestDefaultEndpoints(t *testing.T) {
	s, err := NewSpotify(SpotifyConfig{
		ClientID:     "c",
		ClientSecret: "s",
		RedirectURI:  "http://localhost/callback",
	}, nil)
	if err != nil {
		t.Fatalf("NewSpotify() error = %v", err)
	}

	if !strings.HasPrefix(s.AuthCodeURL(), DefaultAuthURL+"?") {
		t.Errorf("AuthCodeURL() = %q, want %s prefix", s.AuthCodeURL(), DefaultAuthURL)
	}
	if s.tokenURL != DefaultTokenURL {
		t.Errorf("tokenURL = %q, want %q", s.tokenURL, DefaultTokenURL)
	}
	if s.apiBaseURL != DefaultAPIBaseURL {
		t.Errorf("apiBaseURL = %q, want %q", s.apiBaseURL, DefaultAPIBaseURL)
	}
}
