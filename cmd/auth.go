package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/temeke/spotify-playlists/internal/shared"
)

// AuthLogin runs the browser-based OAuth2 authorization flow.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		return fmt.Errorf("%w: set credentials.spotify in config.toml", shared.ErrMissingCredentials)
	}

	r.writePlain("Opening your browser to sign in to Spotify...\n")
	if err := r.auth.Login(ctx); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("You can now run: spl sync\n")
	return nil
}

// AuthStatus reports whether a usable token is saved.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		r.writePlain("Not configured: set credentials.spotify in config.toml\n")
		return nil
	}

	if !r.auth.IsAuthenticated() {
		r.writePlain("Not authenticated. Run: spl auth login\n")
		return nil
	}

	if _, err := r.auth.AccessToken(ctx); err != nil {
		r.writePlain("Saved token is no longer usable (%v). Run: spl auth login\n", err)
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	if r.auth.IsTokenExpiringSoon(5 * time.Minute) {
		r.writePlain("Access token expires soon and will be refreshed on the next request\n")
	}
	return nil
}

// AuthLogout removes the saved token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.auth == nil {
		r.writePlain("Not configured: nothing to log out from\n")
		return nil
	}

	if err := r.auth.Logout(); err != nil {
		return err
	}
	r.writePlain("✓ Logged out\n")
	return nil
}
