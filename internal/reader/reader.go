// Package reader builds a prompt-sized snapshot of a codebase: every
// supported text file concatenated into one blob, with .gitignore patterns
// and size caps respected.
package reader

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sirupsen/logrus"

	"github.com/nexusspace/llm-council/internal/config"
)

// Skip reasons reported in Summary.SkippedReasons.
const (
	SkipIgnored    = "ignored"
	SkipExtension  = "unsupported_extension"
	SkipBinary     = "binary"
	SkipTooLarge   = "size_limit_reached"
	SkipFileLimit  = "file_limit_reached"
	SkipUnreadable = "unreadable"
)

// Patterns ignored regardless of the project's .gitignore.
var defaultIgnores = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"__pycache__/",
	"*.pyc",
	".venv/",
	"venv/",
	".env",
	"*.egg-info/",
	".pytest_cache/",
	".mypy_cache/",
	".DS_Store",
	"Thumbs.db",
}

var log = logrus.WithField("component", "reader")

// Summary reports what was read and what was skipped, and why.
type Summary struct {
	FilesRead      int            `json:"files_read"`
	FilesSkipped   int            `json:"files_skipped"`
	TotalSizeBytes int64          `json:"total_size_bytes"`
	SkippedReasons map[string]int `json:"skipped_reasons"`
}

// Reader walks project trees under the configured limits.
type Reader struct {
	maxFiles      int
	maxTotalBytes int64
	extensions    map[string]bool
}

// New builds a Reader from the process configuration.
func New(cfg *config.Config) *Reader {
	exts := make(map[string]bool, len(cfg.SupportedExtensions))
	for _, ext := range cfg.SupportedExtensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Reader{
		maxFiles:      cfg.MaxFilesToRead,
		maxTotalBytes: int64(cfg.MaxCodebaseSizeMB) << 20,
		extensions:    exts,
	}
}

// ReadProject concatenates every supported file under root into one text
// blob, each file prefixed with a path header. The pipeline treats the blob
// as an opaque prompt.
func (r *Reader) ReadProject(root string) (string, *Summary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return "", nil, fmt.Errorf("invalid project path %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", nil, fmt.Errorf("project path %s is not a directory", root)
	}

	matcher := loadIgnorePatterns(root)

	summary := &Summary{SkippedReasons: make(map[string]int)}
	var content strings.Builder

	// Collect paths first so output order is stable across platforms.
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if matcher.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("walking project tree: %w", err)
	}
	sort.Strings(paths)

	for _, rel := range paths {
		if summary.FilesRead >= r.maxFiles {
			summary.skip(SkipFileLimit)
			continue
		}
		if matcher.MatchesPath(rel) {
			summary.skip(SkipIgnored)
			continue
		}
		if !r.extensions[strings.ToLower(filepath.Ext(rel))] {
			summary.skip(SkipExtension)
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			summary.skip(SkipUnreadable)
			continue
		}
		if looksBinary(data) {
			summary.skip(SkipBinary)
			continue
		}
		if summary.TotalSizeBytes+int64(len(data)) > r.maxTotalBytes {
			summary.skip(SkipTooLarge)
			continue
		}

		content.WriteString(fmt.Sprintf("=== %s ===\n", rel))
		content.Write(data)
		content.WriteString("\n\n")
		summary.FilesRead++
		summary.TotalSizeBytes += int64(len(data))
	}

	log.WithFields(logrus.Fields{
		"root":  root,
		"read":  summary.FilesRead,
		"skip":  summary.FilesSkipped,
		"bytes": summary.TotalSizeBytes,
	}).Info("project context built")

	return content.String(), summary, nil
}

func (s *Summary) skip(reason string) {
	s.FilesSkipped++
	s.SkippedReasons[reason]++
}

func loadIgnorePatterns(root string) *ignore.GitIgnore {
	patterns := append([]string{}, defaultIgnores...)

	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err == nil {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				patterns = append(patterns, line)
			}
		}
	}
	return ignore.CompileIgnoreLines(patterns...)
}

// looksBinary sniffs for a null byte in the leading chunk, the same
// heuristic git uses.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > 512 {
		n = 512
	}
	return bytes.IndexByte(data[:n], 0) != -1
}
