package server

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/nexusspace/llm-council/internal/council"
)

// sendMessageStream handles POST /api/conversations/:id/message/stream.
// The council's streaming adapter emits each stage boundary as a discrete
// SSE event; the assistant message is persisted before the final complete
// event so a client observing complete can rely on the record existing.
func (s *Server) sendMessageStream(c *gin.Context) {
	conversationID := c.Param("id")

	var request SendMessageRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	conversation, err := s.store.Get(conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to get conversation: %v", err)})
		return
	}
	if conversation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	isFirstMessage := len(conversation.Messages) == 0

	if err := s.store.AppendUserMessage(conversationID, request.Content); err != nil {
		s.writeEvent(c, council.Event{Type: council.EventError, Message: fmt.Sprintf("Failed to add user message: %v", err)})
		return
	}

	req := council.StreamRequest{
		Query:     request.Content,
		WithTitle: isFirstMessage,
		Persist: func(result *council.Result, title string) error {
			if title != "" {
				if err := s.store.UpdateTitle(conversationID, title); err != nil {
					log.Warnf("failed to update title for %s: %v", conversationID, err)
				}
			}
			return s.store.AppendAssistantMessage(conversationID, result.Stage1, result.Stage2, result.Aggregate, &result.Stage3)
		},
	}

	// RunStream emits the terminal error event itself; nothing to add here
	// beyond logging.
	if err := s.council.RunStream(c.Request.Context(), req, func(ev council.Event) {
		s.writeEvent(c, ev)
	}); err != nil {
		log.Warnf("streamed run failed for %s: %v", conversationID, err)
	}
}

// writeEvent encodes one event in SSE framing and flushes it immediately.
func (s *Server) writeEvent(c *gin.Context, ev council.Event) {
	if err := sse.Encode(c.Writer, sse.Event{Data: ev}); err != nil {
		log.Warnf("failed to write SSE event: %v", err)
		return
	}
	c.Writer.Flush()
}
