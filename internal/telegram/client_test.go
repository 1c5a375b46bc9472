package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_SendMessage(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"ok":true,"result":{"message_id":41,"chat":{"id":10}}}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("TOKEN", srv.URL)
	id, err := c.SendMessage(context.Background(), 10, "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if id != 41 {
		t.Errorf("message id = %d, want 41", id)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["text"] != "hello" {
		t.Errorf("text param = %v", gotBody["text"])
	}
}

func TestClient_APIErrorSurfacesDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		if _, err := w.Write([]byte(`{"ok":false,"error_code":403,"description":"bot was blocked by the user"}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("TOKEN", srv.URL)
	_, err := c.SendMessage(context.Background(), 10, "hello")
	if err == nil {
		t.Fatal("expected error from failed API call")
	}
	if !strings.Contains(err.Error(), "bot was blocked by the user") {
		t.Errorf("error = %v, want description included", err)
	}
}

func TestClient_GetUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte(`{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"text":"/help","chat":{"id":10},"from":{"id":77,"first_name":"Ada"}}}
		]}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("TOKEN", srv.URL)
	updates, err := c.GetUpdates(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	u := updates[0]
	if u.UpdateID != 7 || u.Message == nil || u.Message.Text != "/help" || u.Message.From.ID != 77 {
		t.Errorf("unexpected update: %+v", u)
	}
}
