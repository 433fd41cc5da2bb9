package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nexusspace/llm-council/internal/council"
)

func TestFilesystemCreateAndGet(t *testing.T) {
	store := NewFilesystem(t.TempDir())

	created, err := store.Create("conv-1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Title != DefaultTitle {
		t.Errorf("Title = %q, want %q", created.Title, DefaultTitle)
	}
	if len(created.Messages) != 0 {
		t.Errorf("New conversation has %d messages, want 0", len(created.Messages))
	}

	loaded, err := store.Get("conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Get returned nil for an existing conversation")
	}
	if loaded.ID != "conv-1" {
		t.Errorf("ID = %q, want 'conv-1'", loaded.ID)
	}
}

func TestFilesystemGetMissing(t *testing.T) {
	store := NewFilesystem(t.TempDir())

	conversation, err := store.Get("nope")
	if err != nil {
		t.Fatalf("Get should not error on a missing conversation: %v", err)
	}
	if conversation != nil {
		t.Error("Get should return nil for a missing conversation")
	}
}

func TestFilesystemAppendMessages(t *testing.T) {
	store := NewFilesystem(t.TempDir())
	if _, err := store.Create("conv-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.AppendUserMessage("conv-1", "hello council"); err != nil {
		t.Fatalf("AppendUserMessage failed: %v", err)
	}

	stage1 := []council.Answer{{Model: "model/alpha", Content: "answer"}}
	stage3 := &council.Synthesis{Model: "model/chair", Content: "final"}
	if err := store.AppendAssistantMessage("conv-1", stage1, nil, nil, stage3); err != nil {
		t.Fatalf("AppendAssistantMessage failed: %v", err)
	}

	conversation, err := store.Get("conv-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(conversation.Messages) != 2 {
		t.Fatalf("Got %d messages, want 2", len(conversation.Messages))
	}
	if conversation.Messages[0].Role != "user" || conversation.Messages[0].Content != "hello council" {
		t.Errorf("First message = %+v, want user turn", conversation.Messages[0])
	}
	assistant := conversation.Messages[1]
	if assistant.Role != "assistant" {
		t.Errorf("Second message role = %q, want assistant", assistant.Role)
	}
	if len(assistant.Stage1) != 1 || assistant.Stage3 == nil || assistant.Stage3.Content != "final" {
		t.Errorf("Assistant message did not round-trip the staged output: %+v", assistant)
	}
}

func TestFilesystemAppendToMissingConversation(t *testing.T) {
	store := NewFilesystem(t.TempDir())

	if err := store.AppendUserMessage("nope", "hello"); err == nil {
		t.Error("Expected error appending to a missing conversation")
	}
}

func TestFilesystemUpdateTitle(t *testing.T) {
	store := NewFilesystem(t.TempDir())
	if _, err := store.Create("conv-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.UpdateTitle("conv-1", "Go Questions"); err != nil {
		t.Fatalf("UpdateTitle failed: %v", err)
	}
	conversation, _ := store.Get("conv-1")
	if conversation.Title != "Go Questions" {
		t.Errorf("Title = %q, want 'Go Questions'", conversation.Title)
	}
}

func TestFilesystemList(t *testing.T) {
	dir := t.TempDir()
	store := NewFilesystem(dir)

	older := &Conversation{ID: "older", CreatedAt: time.Now().UTC().Add(-time.Hour), Title: "old"}
	newer := &Conversation{ID: "newer", CreatedAt: time.Now().UTC(), Title: "new", Messages: []Message{{Role: "user", Content: "hi"}}}
	if err := store.Save(older); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(newer); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Neither the settings sidecar nor junk files should surface.
	if err := store.SetSetting("llm_provider", "local"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	conversations, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("Got %d conversations, want 2", len(conversations))
	}
	if conversations[0].ID != "newer" || conversations[1].ID != "older" {
		t.Errorf("Order = [%s, %s], want newest first", conversations[0].ID, conversations[1].ID)
	}
	if conversations[0].MessageCount != 1 {
		t.Errorf("MessageCount = %d, want 1", conversations[0].MessageCount)
	}
}

func TestFilesystemSettings(t *testing.T) {
	store := NewFilesystem(t.TempDir())

	value, err := store.GetSetting("llm_provider")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "" {
		t.Errorf("Unset key = %q, want empty", value)
	}

	if err := store.SetSetting("llm_provider", "local"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, err = store.GetSetting("llm_provider")
	if err != nil {
		t.Fatalf("GetSetting failed: %v", err)
	}
	if value != "local" {
		t.Errorf("Value = %q, want 'local'", value)
	}

	// Overwrite sticks.
	if err := store.SetSetting("llm_provider", "openrouter"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	value, _ = store.GetSetting("llm_provider")
	if value != "openrouter" {
		t.Errorf("Value = %q, want 'openrouter'", value)
	}
}
