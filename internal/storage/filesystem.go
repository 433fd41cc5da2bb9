package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/nexusspace/llm-council/internal/council"
)

// Filesystem stores each conversation as a JSON file under a data directory
// and settings in a settings.json sidecar.
type Filesystem struct {
	dir string

	// settingsMu serializes sidecar read-modify-write cycles. Conversation
	// writes are serialized by the caller per conversation.
	settingsMu sync.Mutex
}

// NewFilesystem builds a filesystem store rooted at dir.
func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{dir: dir}
}

func (s *Filesystem) ensureDir() error {
	return os.MkdirAll(s.dir, 0755)
}

func (s *Filesystem) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Create initializes an empty conversation with the default title.
func (s *Filesystem) Create(id string) (*Conversation, error) {
	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	conversation := &Conversation{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Title:     DefaultTitle,
		Messages:  []Message{},
	}
	if err := s.Save(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// Get loads a conversation, returning (nil, nil) when it does not exist.
func (s *Filesystem) Get(id string) (*Conversation, error) {
	path := s.path(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}
	var conversation Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation JSON: %w", err)
	}
	return &conversation, nil
}

// Save writes a conversation back to disk as formatted JSON.
func (s *Filesystem) Save(conversation *Conversation) error {
	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := os.WriteFile(s.path(conversation.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	return nil
}

// List returns metadata for every stored conversation, newest first.
// Unreadable or invalid files are skipped.
func (s *Filesystem) List() ([]ConversationMetadata, error) {
	if err := s.ensureDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	conversations := make([]ConversationMetadata, 0)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" || entry.Name() == settingsFile {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil || conv.ID == "" {
			continue
		}
		conversations = append(conversations, ConversationMetadata{
			ID:           conv.ID,
			CreatedAt:    conv.CreatedAt,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].CreatedAt.After(conversations[j].CreatedAt)
	})
	return conversations, nil
}

// AppendUserMessage appends a user turn.
func (s *Filesystem) AppendUserMessage(id, content string) error {
	return appendMessage(s, id, Message{Role: "user", Content: content})
}

// AppendAssistantMessage appends an assistant turn with the full staged
// council output.
func (s *Filesystem) AppendAssistantMessage(id string, stage1 []council.Answer, stage2 []council.Ranking, aggregate []council.AggregateEntry, stage3 *council.Synthesis) error {
	return appendMessage(s, id, Message{
		Role:      "assistant",
		Stage1:    stage1,
		Stage2:    stage2,
		Aggregate: aggregate,
		Stage3:    stage3,
	})
}

// UpdateTitle replaces the conversation title.
func (s *Filesystem) UpdateTitle(id, title string) error {
	return updateTitle(s, id, title)
}

const settingsFile = "settings.json"

// GetSetting reads a setting from the sidecar file. An absent file or key
// yields "" without error.
func (s *Filesystem) GetSetting(key string) (string, error) {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.readSettings()
	if err != nil {
		return "", err
	}
	return settings[key], nil
}

// SetSetting writes a setting to the sidecar file.
func (s *Filesystem) SetSetting(key, value string) error {
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()

	settings, err := s.readSettings()
	if err != nil {
		return err
	}
	settings[key] = value

	if err := s.ensureDir(); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	return os.WriteFile(filepath.Join(s.dir, settingsFile), data, 0644)
}

func (s *Filesystem) readSettings() (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, settingsFile))
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	settings := map[string]string{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return settings, nil
}
