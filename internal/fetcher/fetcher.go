// Package fetcher resolves a remote repository URL to a local checkout and
// guarantees the checkout is removed after use.
package fetcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "fetcher")

// Fetcher clones remote repositories into isolated directories under a base
// temp dir.
type Fetcher struct {
	baseDir string
}

// New builds a Fetcher rooted at baseDir.
func New(baseDir string) *Fetcher {
	return &Fetcher{baseDir: baseDir}
}

// IsRemoteURL reports whether a path argument names a remote repository
// rather than a local directory.
func IsRemoteURL(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "git@")
}

// Clone shallow-clones repoURL into a fresh directory and returns its path
// together with a cleanup function that removes the tree. On failure the
// partial directory is removed before the error is returned.
func (f *Fetcher) Clone(ctx context.Context, repoURL string) (string, func(), error) {
	dir := filepath.Join(f.baseDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create clone directory: %w", err)
	}

	log.WithField("url", repoURL).Info("cloning repository")

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          repoURL,
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, fmt.Errorf("failed to clone %s: %w", repoURL, err)
	}

	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warnf("failed to remove clone dir %s: %v", dir, err)
		}
	}
	return dir, cleanup, nil
}
