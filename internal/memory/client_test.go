package memory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemember(t *testing.T) {
	var got rememberRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/remember" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		if key := r.Header.Get("X-API-Key"); key != "sk-mem" {
			t.Errorf("X-API-Key: got %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "sk-mem")
	err := c.Remember(context.Background(), "locomo_q1", Unit{
		Content:    "Session 1 Summary: hello",
		MemoryType: TypeContext,
		Tags:       []string{"session_1", "summary"},
	})
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}

	if got.UserID != "locomo_q1" {
		t.Fatalf("user_id: got %q", got.UserID)
	}
	if got.MemoryType != TypeContext {
		t.Fatalf("memory_type: got %q", got.MemoryType)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "session_1" {
		t.Fatalf("tags: got %v", got.Tags)
	}
}

func TestRememberBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/remember/batch" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var req rememberBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if !req.Options.ExtractEntities || !req.Options.CreateEdges {
			t.Errorf("options: got %+v", req.Options)
		}
		_ = json.NewEncoder(w).Encode(rememberBatchResponse{Created: len(req.Memories)})
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "sk-mem")
	units := []Unit{
		{Content: "a", MemoryType: TypeConversation},
		{Content: "b", MemoryType: TypeConversation},
	}
	created, err := c.RememberBatch(context.Background(), "locomo_q1", units, BatchOptions{
		ExtractEntities: true,
		CreateEdges:     true,
	})
	if err != nil {
		t.Fatalf("RememberBatch: %v", err)
	}
	if created != 2 {
		t.Fatalf("created: got %d want 2", created)
	}

	// An empty batch never touches the network.
	created, err = c.RememberBatch(context.Background(), "locomo_q1", nil, BatchOptions{})
	if err != nil || created != 0 {
		t.Fatalf("empty batch: got (%d, %v)", created, err)
	}
}

func TestRecall_BothShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "experience shape",
			body: `{"memories":[{"score":0.91,"experience":{"content":"Melanie painted a sunrise.","tags":["session_2"]}}]}`,
			want: "Melanie painted a sunrise.",
		},
		{
			name: "flat shape",
			body: `{"memories":[{"content":"Caroline went hiking.","score":0.5}]}`,
			want: "Caroline went hiking.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req recallRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode: %v", err)
				}
				if req.Limit != 5 || req.Mode != "hybrid" {
					t.Errorf("defaults: got limit=%d mode=%q", req.Limit, req.Mode)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)

			c := NewClient(srv.URL, "sk-mem")
			memories, err := c.Recall(context.Background(), "locomo_q1", "what did Melanie paint?", 0, "")
			if err != nil {
				t.Fatalf("Recall: %v", err)
			}
			if len(memories) != 1 {
				t.Fatalf("memories: got %d want 1", len(memories))
			}
			if got := memories[0].Text(); got != tc.want {
				t.Fatalf("Text: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestRecall_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"memories":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "sk-mem")
	memories, err := c.Recall(context.Background(), "u", "q", 5, "hybrid")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(memories) != 0 {
		t.Fatalf("memories: got %d want 0", len(memories))
	}
}

func TestDeleteUser(t *testing.T) {
	var gotPath, gotPurge string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method: got %q", r.Method)
		}
		gotPath = r.URL.Path
		gotPurge = r.URL.Query().Get("purge")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "sk-mem")
	if err := c.DeleteUser(context.Background(), "locomo_q1", true); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if gotPath != "/api/users/locomo_q1" {
		t.Fatalf("path: got %q", gotPath)
	}
	if gotPurge != "true" {
		t.Fatalf("purge: got %q", gotPurge)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	if err := NewClient(srv.URL, "").Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "wrong")
	err := c.Remember(context.Background(), "u", Unit{Content: "x", MemoryType: TypeConversation})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Remember: got %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status: got %d", apiErr.StatusCode)
	}
}

func TestClientGuards(t *testing.T) {
	var cnil *Client
	if err := cnil.Health(context.Background()); err == nil {
		t.Fatal("nil client: expected error")
	}

	c := NewClient("http://127.0.0.1:3030", "k")
	if err := c.Remember(context.Background(), " ", Unit{}); err == nil {
		t.Fatal("empty user: expected error")
	}
	var nilCtx context.Context
	if err := c.Health(nilCtx); err == nil {
		t.Fatal("nil ctx: expected error")
	}
}
