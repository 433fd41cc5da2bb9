package llm

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockChatServer starts a chat-completions endpoint backed by handler and
// closes it when the test ends.
func mockChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// chatHandler replies to every request with the given content and reasoning.
func chatHandler(content, reasoning string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeChatResponse(w, content, reasoning)
	}
}

func writeChatResponse(w http.ResponseWriter, content, reasoning string) {
	response := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content, "reasoning": reasoning}},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func errorHandler(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, message, status)
	}
}

// decodeRequest parses the raw request payload so tests can assert on wire
// fields like max_tokens.
func decodeRequest(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode request payload: %v", err)
	}
	return payload
}
