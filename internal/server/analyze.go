package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nexusspace/llm-council/internal/config"
	"github.com/nexusspace/llm-council/internal/fetcher"
)

// AnalysisRequest is the body for POST /api/analyze-project. ProjectPath
// may be a local directory or a remote repository URL.
type AnalysisRequest struct {
	ProjectPath    string `json:"project_path"`
	AnalysisPrompt string `json:"analysis_prompt"`
}

const defaultAnalysisPrompt = `Analyze this codebase and provide insights on:
1. Overall architecture and design patterns
2. Code quality and best practices
3. Potential improvements or issues
4. Key components and their relationships`

// FetchURLRequest is the body for POST /api/fetch-url.
type FetchURLRequest struct {
	URL string `json:"url" binding:"required"`
}

// analyzeProject handles POST /api/analyze-project: build a codebase
// context blob (cloning first when the path is a remote URL) and run the
// council over it. The pipeline treats the blob as an opaque prompt.
func (s *Server) analyzeProject(c *gin.Context) {
	var request AnalysisRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}
	if request.ProjectPath == "" {
		request.ProjectPath = "."
	}

	pathToAnalyze := request.ProjectPath
	if fetcher.IsRemoteURL(request.ProjectPath) {
		localPath, cleanup, err := s.fetcher.Clone(c.Request.Context(), request.ProjectPath)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to clone repository: %v", err)})
			return
		}
		defer cleanup()
		pathToAnalyze = localPath
	}

	content, summary, err := s.reader.ReadProject(pathToAnalyze)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Error reading project files: %v", err)})
		return
	}
	if summary.FilesRead == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No files found to analyze. The directory may be empty or all files are ignored.",
		})
		return
	}

	intro := request.AnalysisPrompt
	if intro == "" {
		intro = defaultAnalysisPrompt
	}
	prompt := fmt.Sprintf("%s\n\nHERE IS THE LOCAL CODEBASE CONTEXT:\n===================================\n\n%s", intro, content)

	result, err := s.council.Run(c.Request.Context(), prompt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Error during council analysis: %v", err)})
		return
	}

	provider := s.cfg.Provider
	if s.settings != nil {
		if stored, err := s.settings.GetSetting(config.SettingProvider); err == nil && stored != "" {
			provider = stored
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"stage1":    result.Stage1,
		"stage2":    result.Stage2,
		"aggregate": result.Aggregate,
		"stage3":    result.Stage3,
		"metadata": gin.H{
			"models_queried":       result.Metadata.ModelsQueried,
			"chairman_model":       result.Metadata.ChairmanModel,
			"stage2_ran":           result.Metadata.Stage2Ran,
			"elapsed_ms_per_stage": result.Metadata.ElapsedMS,
			"file_analysis":        summary,
			"llm_provider":         provider,
			"source_path":          request.ProjectPath,
		},
	})
}

// fetchURL handles POST /api/fetch-url: extract a page's readable text for
// use as prompt context.
func (s *Server) fetchURL(c *gin.Context) {
	var request FetchURLRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	content, err := s.webfetch.Fetch(c.Request.Context(), request.URL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to fetch URL content: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}
