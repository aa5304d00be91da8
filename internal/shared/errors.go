package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrUnauthorized     = fmt.Errorf("unauthorized")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// Remote API errors
	ErrRateLimited       = fmt.Errorf("rate limited")
	ErrRemoteUnavailable = fmt.Errorf("remote service unavailable")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")

	// Local persistence errors
	ErrStorage = fmt.Errorf("storage failure")

	// Input validation errors
	ErrInvalidFilter   = fmt.Errorf("invalid filter")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
