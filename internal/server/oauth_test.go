package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

// mockExchanger implements [Exchanger] for testing
type mockExchanger struct {
	token *oauth2.Token
	err   error
	codes []string
}

func (m *mockExchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	m.codes = append(m.codes, code)
	return m.token, m.err
}

func TestOAuthHandler(t *testing.T) {
	t.Run("successful callback delivers token", func(t *testing.T) {
		exchanger := &mockExchanger{token: &oauth2.Token{AccessToken: "fresh_token"}}
		handler := NewOAuthHandler(exchanger, "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=auth_code", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if len(exchanger.codes) != 1 || exchanger.codes[0] != "auth_code" {
			t.Errorf("expected auth_code exchanged, got %v", exchanger.codes)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token.AccessToken != "fresh_token" {
			t.Errorf("expected fresh_token, got %s", result.Token.AccessToken)
		}
	})

	t.Run("state mismatch is rejected", func(t *testing.T) {
		handler := NewOAuthHandler(&mockExchanger{}, "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=auth_code", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected state error in result")
		}
	})

	t.Run("missing code surfaces provider error", func(t *testing.T) {
		handler := NewOAuthHandler(&mockExchanger{}, "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state123&error=access_denied", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected authorization error in result")
		}
	})

	t.Run("exchange failure is 500", func(t *testing.T) {
		exchanger := &mockExchanger{err: errors.New("exchange failed")}
		handler := NewOAuthHandler(exchanger, "state123")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=auth_code", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("second callback is rejected", func(t *testing.T) {
		exchanger := &mockExchanger{token: &oauth2.Token{AccessToken: "fresh_token"}}
		handler := NewOAuthHandler(exchanger, "state123")

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=auth_code", nil))

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=auth_code", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected 400 for replayed callback, got %d", second.Code)
		}
		if len(exchanger.codes) != 1 {
			t.Errorf("expected a single exchange, got %d", len(exchanger.codes))
		}
	})
}
