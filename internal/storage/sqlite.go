package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nexusspace/llm-council/internal/council"
)

// SQLite stores conversations as JSON blobs in a conversations table and
// settings in a user_settings table, sharing one database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc's driver is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_settings (
			setting_key TEXT PRIMARY KEY,
			setting_value TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Create initializes an empty conversation with the default title.
func (s *SQLite) Create(id string) (*Conversation, error) {
	conversation := &Conversation{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Title:     DefaultTitle,
		Messages:  []Message{},
	}
	data, err := json.Marshal(conversation)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT INTO conversations (id, created_at, data) VALUES (?, ?, ?)",
		id, conversation.CreatedAt.Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conversation, nil
}

// Get loads a conversation, returning (nil, nil) when it does not exist.
func (s *SQLite) Get(id string) (*Conversation, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM conversations WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}
	var conversation Conversation
	if err := json.Unmarshal([]byte(data), &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation JSON: %w", err)
	}
	return &conversation, nil
}

// Save writes a conversation back, replacing the stored blob.
func (s *SQLite) Save(conversation *Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}
	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO conversations (id, created_at, data) VALUES (?, ?, ?)",
		conversation.ID, conversation.CreatedAt.Format(time.RFC3339Nano), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// List returns metadata for every stored conversation, newest first.
func (s *SQLite) List() ([]ConversationMetadata, error) {
	rows, err := s.db.Query("SELECT data FROM conversations ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]ConversationMetadata, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		var conv Conversation
		if err := json.Unmarshal([]byte(data), &conv); err != nil {
			log.Warnf("skipping unreadable conversation row: %v", err)
			continue
		}
		conversations = append(conversations, ConversationMetadata{
			ID:           conv.ID,
			CreatedAt:    conv.CreatedAt,
			Title:        conv.Title,
			MessageCount: len(conv.Messages),
		})
	}
	return conversations, rows.Err()
}

// AppendUserMessage appends a user turn.
func (s *SQLite) AppendUserMessage(id, content string) error {
	return appendMessage(s, id, Message{Role: "user", Content: content})
}

// AppendAssistantMessage appends an assistant turn with the full staged
// council output.
func (s *SQLite) AppendAssistantMessage(id string, stage1 []council.Answer, stage2 []council.Ranking, aggregate []council.AggregateEntry, stage3 *council.Synthesis) error {
	return appendMessage(s, id, Message{
		Role:      "assistant",
		Stage1:    stage1,
		Stage2:    stage2,
		Aggregate: aggregate,
		Stage3:    stage3,
	})
}

// UpdateTitle replaces the conversation title.
func (s *SQLite) UpdateTitle(id, title string) error {
	return updateTitle(s, id, title)
}

// GetSetting reads a setting value; an unset key yields "" without error.
func (s *SQLite) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT setting_value FROM user_settings WHERE setting_key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting: %w", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a setting value.
func (s *SQLite) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO user_settings (setting_key, setting_value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	return nil
}
