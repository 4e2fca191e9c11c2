package monday

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestBoardCache_ReusesWithinTTL(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"boards": []map[string]any{{"id": "1", "name": "Board"}}},
		})
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	cache := NewBoardCache(client)

	for i := 0; i < 3; i++ {
		boards, err := cache.List(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(boards) != 1 {
			t.Fatalf("expected 1 board, got %d", len(boards))
		}
	}

	if calls.Load() != 1 {
		t.Errorf("expected exactly 1 HTTP call across repeated List calls within TTL, got %d", calls.Load())
	}
}
