package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SendMessageRequest is the body for both messaging endpoints.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// listConversations handles GET /api/conversations.
func (s *Server) listConversations(c *gin.Context) {
	conversations, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to list conversations: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

// createConversation handles POST /api/conversations.
func (s *Server) createConversation(c *gin.Context) {
	conversation, err := s.store.Create(uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to create conversation: %v", err),
		})
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// getConversation handles GET /api/conversations/:id.
func (s *Server) getConversation(c *gin.Context) {
	conversation, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": fmt.Sprintf("Failed to get conversation: %v", err),
		})
		return
	}
	if conversation == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return
	}
	c.JSON(http.StatusOK, conversation)
}

// sendMessage handles POST /api/conversations/:id/message: the synchronous
// council run. Title generation for a first message happens in the
// background so it cannot delay the response.
func (s *Server) sendMessage(c *gin.Context) {
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

	isFirstMessage := len(conversation.Messages) == 0

	if err := s.store.AppendUserMessage(conversationID, request.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to add user message: %v", err)})
		return
	}

	if isFirstMessage {
		go s.generateTitleInBackground(conversationID, request.Content)
	}

	result, err := s.council.Run(c.Request.Context(), request.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Council process failed: %v", err)})
		return
	}

	if err := s.store.AppendAssistantMessage(conversationID, result.Stage1, result.Stage2, result.Aggregate, &result.Stage3); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to add assistant message: %v", err)})
		return
	}

	c.JSON(http.StatusOK, result)
}

// generateTitleInBackground labels a conversation after its first message.
// Failure keeps the default title.
func (s *Server) generateTitleInBackground(conversationID, content string) {
	title, err := s.council.GenerateTitle(context.Background(), content)
	if err != nil {
		log.Warnf("title generation failed for %s: %v", conversationID, err)
		return
	}
	if err := s.store.UpdateTitle(conversationID, title); err != nil {
		log.Warnf("failed to update title for %s: %v", conversationID, err)
	}
}
