package streamclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatdeck/services/inbox-sync/internal/domain/chat"
	"chatdeck/services/inbox-sync/internal/infrastructure/streamclient"
)

func TestOpenStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages/stream" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if accept := r.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("Accept = %q", accept)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("Authorization = %q, want forwarded token", auth)
		}

		var req chat.SendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ConversationID != "conv-1" || req.Text != "hello" {
			t.Errorf("request = %+v", req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: delta\ndata: {\"text\":\"Hi\"}\n\n")
		io.WriteString(w, "event: done\ndata: {\"status\":\"done\"}\n\n")
	}))
	defer server.Close()

	client := streamclient.NewClient(server.URL, time.Minute)
	ctx := chat.WithAuthToken(context.Background(), "Bearer tok")

	stream, err := client.OpenStream(ctx, chat.SendRequest{ConversationID: "conv-1", Text: "hello"})
	if err != nil {
		t.Fatalf("OpenStream() error: %v", err)
	}
	defer stream.Close()

	first, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if first.Type != chat.EventDelta || first.Delta.Text != "Hi" {
		t.Errorf("first event = %+v", first)
	}

	second, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv() error: %v", err)
	}
	if second.Type != chat.EventDone {
		t.Errorf("second event = %+v", second)
	}

	if _, err := stream.Recv(); err != io.EOF {
		t.Errorf("Recv() after close = %v, want io.EOF", err)
	}
}

func TestOpenStream_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "window expired", http.StatusForbidden)
	}))
	defer server.Close()

	client := streamclient.NewClient(server.URL, time.Minute)
	if _, err := client.OpenStream(context.Background(), chat.SendRequest{ConversationID: "conv-1", Text: "x"}); err == nil {
		t.Fatal("OpenStream() expected error on 403")
	}
}
