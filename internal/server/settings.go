package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexusspace/llm-council/internal/config"
)

// SettingsUpdate is the body for POST /api/settings.
type SettingsUpdate struct {
	Settings map[string]string `json:"settings" binding:"required"`
}

// getSettings handles GET /api/settings. The provider value falls back to
// the process-wide default when nothing is persisted.
func (s *Server) getSettings(c *gin.Context) {
	provider := s.cfg.Provider
	if s.settings != nil {
		stored, err := s.settings.GetSetting(config.SettingProvider)
		if err != nil {
			log.Warnf("settings lookup failed: %v", err)
		} else if stored != "" {
			provider = stored
		}
	}
	c.JSON(http.StatusOK, gin.H{config.SettingProvider: provider})
}

// updateSettings handles POST /api/settings. Only the provider key is
// recognized; anything else is rejected rather than silently stored.
func (s *Server) updateSettings(c *gin.Context) {
	var update SettingsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	for key, value := range update.Settings {
		if key != config.SettingProvider {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported setting key: %s", key)})
			return
		}
		if value != config.ProviderOpenRouter && value != config.ProviderLocal {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown provider: %s", value)})
			return
		}
		if err := s.settings.SetSetting(key, value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to save setting: %v", err)})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated successfully"})
}
