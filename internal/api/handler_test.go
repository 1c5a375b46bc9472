//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
)

type stubRepo struct {
	pingErr error
	watches []*domain.Watch
	listErr error
}

func (s *stubRepo) UpsertWatch(ctx context.Context, w *domain.Watch) error { return nil }
func (s *stubRepo) DeleteWatch(ctx context.Context, chatID int64, target string) (bool, error) {
	return false, nil
}
func (s *stubRepo) ListByChat(ctx context.Context, chatID int64) ([]*domain.Watch, error) {
	return nil, nil
}
func (s *stubRepo) ListAll(ctx context.Context) ([]*domain.Watch, error) {
	return s.watches, s.listErr
}
func (s *stubRepo) UpdateResult(ctx context.Context, chatID int64, target string, category domain.Category, checkedAt time.Time) error {
	return nil
}
func (s *stubRepo) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubRepo) Close() error                   { return nil }

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestHealth_DegradedWhenPingFails(t *testing.T) {
	h := NewHandler(&stubRepo{pingErr: errors.New("db gone")})
	w := httptest.NewRecorder()

	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestWatches_ReturnsList(t *testing.T) {
	h := NewHandler(&stubRepo{watches: []*domain.Watch{
		{ChatID: 10, Target: "@some_channel", LastCategory: domain.CategoryLive},
	}})
	w := httptest.NewRecorder()

	h.Watches(w, httptest.NewRequest(http.MethodGet, "/api/watches", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got struct {
		Count   int            `json:"count"`
		Watches []domain.Watch `json:"watches"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 1 || len(got.Watches) != 1 || got.Watches[0].Target != "@some_channel" {
		t.Errorf("unexpected payload: %+v", got)
	}
}
