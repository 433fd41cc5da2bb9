// Package llm abstracts the chat-completion providers behind a single
// client contract so the council pipeline stays provider-agnostic.
package llm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one entry of a chat-completion context. Order within a slice is
// chronological and significant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryResult is a successful completion. A failed call is represented by a
// nil *QueryResult, never by a partially filled value.
type QueryResult struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// FanOutResult maps every requested model to its result, nil meaning the
// call failed. The key set always equals the requested model set; callers
// needing deterministic display order iterate their own model list.
type FanOutResult map[string]*QueryResult

// Client is the contract every provider adapter implements. Adapters differ
// only in authentication, payload shape and response field extraction.
type Client interface {
	// QueryModel issues one completion request. A zero timeout means the
	// adapter's configured default.
	QueryModel(ctx context.Context, model string, messages []Message, timeout time.Duration) (*QueryResult, error)

	// QueryModelsParallel fans QueryModel out across models. It never
	// returns an error: individual failures surface as nil entries.
	QueryModelsParallel(ctx context.Context, models []string, messages []Message) FanOutResult
}

var log = logrus.WithField("component", "llm")
