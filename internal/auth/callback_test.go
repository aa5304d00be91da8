package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/oauth2"
)

func testConfig(tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1:8888/callback",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("exchanges the code on a valid callback", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("bad token request: %v", err)
			}
			if got := r.Form.Get("code"); got != "auth-code" {
				t.Errorf("expected the callback code forwarded, got %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"granted","refresh_token":"keep","token_type":"Bearer","expires_in":3600}`)
		}))
		defer tokenServer.Close()

		handler := newCallbackHandler(testConfig(tokenServer.URL), "expected-state")

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/callback?state=expected-state&code=auth-code", nil)
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "close this window") {
			t.Errorf("expected the success page, got %q", recorder.Body.String())
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("unexpected flow error: %v", result.Error())
		}
		if result.Token.AccessToken != "granted" || result.Token.RefreshToken != "keep" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})

	t.Run("rejects a state mismatch", func(t *testing.T) {
		handler := newCallbackHandler(testConfig("http://unused"), "expected-state")

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=auth-code", nil)
		handler.ServeHTTP(recorder, request)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", recorder.Code)
		}
		result := <-handler.Result()
		if result.Error() == nil {
			t.Fatal("expected a state validation error")
		}
	})

	t.Run("surfaces the provider error", func(t *testing.T) {
		handler := newCallbackHandler(testConfig("http://unused"), "expected-state")

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet,
			"/callback?state=expected-state&error=access_denied&error_description=user+declined", nil)
		handler.ServeHTTP(recorder, request)

		result := <-handler.Result()
		if result.Error() == nil || !strings.Contains(result.Error().Error(), "access_denied") {
			t.Fatalf("expected the provider error surfaced, got %v", result.Error())
		}
	})

	t.Run("handles only the first callback", func(t *testing.T) {
		handler := newCallbackHandler(testConfig("http://unused"), "expected-state")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=forged", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=forged", nil))

		if second.Code != http.StatusBadRequest {
			t.Fatalf("expected the second callback rejected, got %d", second.Code)
		}
		if !strings.Contains(second.Body.String(), "already processed") {
			t.Errorf("unexpected body %q", second.Body.String())
		}
	})
}
