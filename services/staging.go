package services

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Staging materializes in-memory bytes as uniquely-named files on disk for
// extraction tools that need a file path. Names are generated per request, so
// concurrent stagings never collide. The returned release func is safe to call
// more than once and must be deferred on every path.
type Staging struct {
	dir string
}

// NewStaging creates the staging directory if needed.
func NewStaging(dir string) (*Staging, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "retrieval-gateway")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Staging{dir: dir}, nil
}

// Dir returns the staging directory path.
func (s *Staging) Dir() string {
	return s.dir
}

// Stage writes content to a fresh file and returns its path plus a release
// func that removes it.
func (s *Staging) Stage(content []byte) (string, func(), error) {
	path := filepath.Join(s.dir, uuid.NewString())
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", nil, fmt.Errorf("stage file: %w", err)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("staging: failed to remove %s: %v", path, err)
			}
		})
	}
	return path, release, nil
}

// Sweep removes staged files older than maxAge. Release funcs already clean up
// on every request path; the sweep only catches files orphaned by a crash.
func (s *Staging) Sweep(maxAge time.Duration) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read staging dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	if removed > 0 {
		log.Printf("staging: swept %d orphaned file(s)", removed)
	}
	return nil
}
