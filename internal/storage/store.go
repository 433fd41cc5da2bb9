// Package storage persists conversations and operator settings behind small
// interfaces so the rest of the system never touches a storage internal.
package storage

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nexusspace/llm-council/internal/council"
)

// Message is one turn of a conversation. User turns carry Content; assistant
// turns carry the full staged council output.
type Message struct {
	Role      string                   `json:"role"`
	Content   string                   `json:"content,omitempty"`
	Stage1    []council.Answer         `json:"stage1,omitempty"`
	Stage2    []council.Ranking        `json:"stage2,omitempty"`
	Aggregate []council.AggregateEntry `json:"aggregate,omitempty"`
	Stage3    *council.Synthesis       `json:"stage3,omitempty"`
}

// Conversation is a full conversation record.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// ConversationMetadata is the list-view projection of a conversation.
type ConversationMetadata struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}

// Store is the conversation persistence contract.
type Store interface {
	Create(id string) (*Conversation, error)
	// Get returns (nil, nil) when the conversation does not exist.
	Get(id string) (*Conversation, error)
	Save(conversation *Conversation) error
	// List returns metadata for every conversation, newest first.
	List() ([]ConversationMetadata, error)
	AppendUserMessage(id, content string) error
	AppendAssistantMessage(id string, stage1 []council.Answer, stage2 []council.Ranking, aggregate []council.AggregateEntry, stage3 *council.Synthesis) error
	UpdateTitle(id, title string) error
}

// SettingsStore holds operator-tunable key/value settings. The only key the
// council path reads is the active provider identifier.
type SettingsStore interface {
	// GetSetting returns "" with a nil error when the key is unset.
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// DefaultTitle labels a conversation until title generation replaces it.
const DefaultTitle = "New Conversation"

var log = logrus.WithField("component", "storage")

// crud is the minimal surface the shared append helpers need.
type crud interface {
	Get(id string) (*Conversation, error)
	Save(conversation *Conversation) error
}

func appendMessage(s crud, id string, msg Message) error {
	conversation, err := s.Get(id)
	if err != nil {
		return err
	}
	if conversation == nil {
		return fmt.Errorf("conversation %s not found", id)
	}
	conversation.Messages = append(conversation.Messages, msg)
	return s.Save(conversation)
}

func updateTitle(s crud, id, title string) error {
	conversation, err := s.Get(id)
	if err != nil {
		return err
	}
	if conversation == nil {
		return fmt.Errorf("conversation %s not found", id)
	}
	conversation.Title = title
	return s.Save(conversation)
}
