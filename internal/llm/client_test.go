package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(url string) *Client {
	return NewClient(Config{
		Provider: ProviderFree,
		BaseURL:  url,
		Backoff:  time.Millisecond,
	})
}

func TestCompleteStatusEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "response": "hello there"})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestCompleteOpenAIEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "from choices"}},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from choices" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestCompleteGeminiEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{
					"parts": []map[string]string{{"text": "from gemini"}},
				}},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from gemini" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestCompleteNestedDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"text": "nested"},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Complete(context.Background(), "hi", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "nested" {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestCompleteHTTPErrorNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "hi", "")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusTooManyRequests || !strings.Contains(pe.Snippet, "rate limited") {
		t.Fatalf("unexpected provider error: %+v", pe)
	}
	if hits != 1 {
		t.Fatalf("HTTP error must not retry, server hit %d times", hits)
	}
}

func TestCompleteUnknownEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"unexpected": true})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), "hi", "")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestCompleteRetriesTransportErrors(t *testing.T) {
	c := NewClient(Config{
		Provider: ProviderFree,
		BaseURL:  "http://127.0.0.1:1",
		Retries:  2,
		Backoff:  time.Millisecond,
	})

	_, err := c.Complete(context.Background(), "hi", "")
	if err == nil || !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("expected exhausted retries error, got %v", err)
	}
}

func TestFreeProviderMessagesPayload(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "response": "ok"})
	}))
	defer srv.Close()

	c := NewClient(Config{
		Provider:     ProviderFree,
		BaseURL:      srv.URL,
		PayloadStyle: "messages",
	})
	if _, err := c.Complete(context.Background(), "the prompt", "the system"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, ok := payload["messages"].([]interface{})
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %v", payload)
	}
	first := msgs[0].(map[string]interface{})
	if first["role"] != "system" || first["content"] != "the system" {
		t.Fatalf("system message wrong: %v", first)
	}
}

func TestFreeProviderMessagePayloadFoldsSystem(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "success", "response": "ok"})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if _, err := c.Complete(context.Background(), "the prompt", "the system"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg, _ := payload["message"].(string)
	if !strings.HasPrefix(msg, "the system") || !strings.Contains(msg, "the prompt") {
		t.Fatalf("system not folded into message: %q", msg)
	}
}

func TestUnknownProvider(t *testing.T) {
	c := NewClient(Config{Provider: "other"})
	if _, err := c.Complete(context.Background(), "hi", ""); err == nil {
		t.Fatal("expected unknown provider error")
	}
}
