package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Result contains the outcome of an authorization flow.
type Result struct {
	Token *oauth2.Token
	err   error
}

func (r *Result) Error() error {
	return r.err
}

// callbackHandler handles the OAuth2 redirect for the authorization code
// flow. The state token guards against CSRF.
type callbackHandler struct {
	config      *oauth2.Config
	state       string
	resultChan  chan Result
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

func newCallbackHandler(config *oauth2.Config, state string) *callbackHandler {
	return &callbackHandler{
		config:     config,
		state:      state,
		resultChan: make(chan Result, 1),
	}
}

// ServeHTTP validates the state parameter, exchanges the authorization
// code for tokens, and sends the result through the result channel.
func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	state := r.URL.Query().Get("state")
	if state != h.state {
		err := fmt.Errorf("invalid state parameter")
		h.send(Result{err: err})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		errParam := r.URL.Query().Get("error")
		errDesc := r.URL.Query().Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.send(Result{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.send(Result{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.send(Result{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>Signed in</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 4rem;">
    <h1 style="color: #1DB954;">Signed in to Spotify</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

// send delivers the result through the channel (only once).
func (h *callbackHandler) send(result Result) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel for receiving flow completion.
//
// The channel receives exactly one result and is then closed.
func (h *callbackHandler) Result() <-chan Result {
	return h.resultChan
}
