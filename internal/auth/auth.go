// Package auth implements the OAuth2 authorization code flow against
// Spotify and persists the resulting tokens for later sessions.
//
// Login opens the system browser, runs a loopback HTTP server for the
// redirect, and exchanges the authorization code. Subsequent sessions
// load the saved token and refresh it transparently through a
// [golang.org/x/oauth2.TokenSource].
package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/temeke/spotify-playlists/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during login. Playlist modification scopes are needed
// for playlist generation.
var spotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"playlist-modify-public",
	"playlist-modify-private",
}

// Authenticator drives the OAuth2 flow and serves access tokens. It
// implements the token provider expected by the Spotify client.
type Authenticator struct {
	config  *oauth2.Config
	store   CredentialStore
	logger  *log.Logger
	browser func(url string) error

	mu     sync.Mutex
	source oauth2.TokenSource
}

// Opts contains construction options for an Authenticator.
type Opts struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Store        CredentialStore
	Logger       *log.Logger
	OpenBrowser  func(url string) error // Defaults to shared.OpenBrowser
}

// New creates an Authenticator. ClientID, ClientSecret, and Store are
// required; RedirectURI defaults to http://127.0.0.1:8888/callback.
func New(opts Opts) (*Authenticator, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client ID and secret are required", shared.ErrMissingCredentials)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: credential store is required", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = "http://127.0.0.1:8888/callback"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       spotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &Authenticator{
		config:  config,
		store:   opts.Store,
		logger:  opts.Logger.With("service", "auth"),
		browser: opts.OpenBrowser,
	}, nil
}

// AuthURL returns the authorization URL for the given state token.
func (a *Authenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Login runs the full authorization code flow: starts a loopback server
// on the redirect URI's port, opens the browser, waits for the callback,
// exchanges the code, and persists the token.
func (a *Authenticator) Login(ctx context.Context) error {
	redirect, err := url.Parse(a.config.RedirectURL)
	if err != nil {
		return fmt.Errorf("%w: invalid redirect URI: %v", shared.ErrInvalidConfig, err)
	}

	state := shared.GenerateID()
	handler := newCallbackHandler(a.config, state)

	mux := http.NewServeMux()
	mux.Handle(redirect.Path, handler)

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			a.logger.Error("callback server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	authURL := a.AuthURL(state)
	a.logger.Info("opening browser for authorization", "url", authURL)
	if err := a.browser(authURL); err != nil {
		a.logger.Warn("could not open browser, visit the URL manually", "error", err)
	}

	select {
	case result := <-handler.Result():
		if result.Error() != nil {
			return fmt.Errorf("authorization failed: %w", result.Error())
		}
		if err := a.store.SaveToken(result.Token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		a.setToken(result.Token)
		a.logger.Info("authorization complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AccessToken returns a valid access token, refreshing through the saved
// refresh token when the current one has expired. Implements the token
// provider used by the Spotify client.
func (a *Authenticator) AccessToken(ctx context.Context) (string, error) {
	source, err := a.tokenSource(ctx)
	if err != nil {
		return "", err
	}

	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return token.AccessToken, nil
}

// IsAuthenticated reports whether a saved token exists.
func (a *Authenticator) IsAuthenticated() bool {
	token, err := a.store.LoadToken()
	return err == nil && token != nil && token.AccessToken != ""
}

// IsTokenExpiringSoon reports whether the saved access token expires
// within margin. A token without an expiry never expires.
func (a *Authenticator) IsTokenExpiringSoon(margin time.Duration) bool {
	token, err := a.store.LoadToken()
	if err != nil || token == nil || token.Expiry.IsZero() {
		return false
	}
	return time.Until(token.Expiry) < margin
}

// Logout removes the saved token and drops the cached token source.
func (a *Authenticator) Logout() error {
	if err := a.store.ClearToken(); err != nil {
		return err
	}
	a.mu.Lock()
	a.source = nil
	a.mu.Unlock()
	return nil
}

func (a *Authenticator) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.source != nil {
		return a.source, nil
	}

	token, err := a.store.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}
	if token.RefreshToken == "" && !token.Valid() {
		return nil, shared.ErrNoRefreshToken
	}

	a.source = &persistingTokenSource{
		source:   a.config.TokenSource(ctx, token),
		previous: token.AccessToken,
		callback: func(refreshed *oauth2.Token) {
			if err := a.store.SaveToken(refreshed); err != nil {
				a.logger.Warn("failed to persist refreshed token", "error", err)
			}
		},
	}
	return a.source, nil
}

func (a *Authenticator) setToken(token *oauth2.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = &persistingTokenSource{
		source:   a.config.TokenSource(context.Background(), token),
		previous: token.AccessToken,
		callback: func(refreshed *oauth2.Token) {
			if err := a.store.SaveToken(refreshed); err != nil {
				a.logger.Warn("failed to persist refreshed token", "error", err)
			}
		},
	}
}

// persistingTokenSource wraps an [oauth2.TokenSource] and invokes the
// callback whenever the access token changes, so refreshed tokens
// survive across processes.
type persistingTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	previous string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := token.AccessToken != s.previous
	if changed {
		s.previous = token.AccessToken
	}
	s.mu.Unlock()

	if changed && s.callback != nil {
		func() {
			defer func() { _ = recover() }()
			s.callback(token)
		}()
	}
	return token, nil
}
