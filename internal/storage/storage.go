// Package storage persists raw inbound content on the local filesystem.
// Raw bytes are always written before any AI stage runs, so an item is
// never lost to a failure later in the pipeline.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Store writes raw content under a base directory, organized as
// <base>/files/<category>/<topic>/<timestamp>_<msgid>_<name>.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: filepath.Join(baseDir, "files")}
}

// SaveFile writes binary content and returns the absolute file path.
func (s *Store) SaveFile(category, topic string, messageID int64, originalName string, data []byte) (string, error) {
	path, err := s.targetPath(category, topic, messageID, originalName)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}

// SaveText writes text content and returns the absolute file path.
func (s *Store) SaveText(category, topic string, messageID int64, originalName, text string) (string, error) {
	return s.SaveFile(category, topic, messageID, originalName, []byte(text))
}

func (s *Store) targetPath(category, topic string, messageID int64, originalName string) (string, error) {
	if topic == "" {
		topic = "general"
	}
	dir := filepath.Join(s.baseDir, SanitizeName(category), SanitizeName(topic))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating storage directory: %w", err)
	}

	name := SanitizeName(originalName)
	if name == "" {
		name = "unnamed"
	}
	stamp := time.Now().UTC().Format("20060102T150405")
	return filepath.Join(dir, fmt.Sprintf("%s_%d_%s", stamp, messageID, name)), nil
}

// SanitizeName replaces filesystem-unsafe characters with underscores.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeChars.ReplaceAllString(name, "_")
	// Avoid hidden files and bare dots.
	name = strings.Trim(name, ".")
	if len(name) > 120 {
		name = name[:120]
	}
	return name
}
