package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/surveyflow/pkg/domain"
)

const tmpPrefix = "tmp-"

// Store implements ports.StateStore on the local filesystem, one JSON file per attempt.
type Store struct {
	BasePath string
}

// New creates a Store rooted at basePath (default ".surveyflow/attempts").
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".surveyflow", "attempts")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(attemptID string) (string, error) {
	if attemptID == "" {
		return "", fmt.Errorf("attempt id cannot be empty")
	}
	if strings.ContainsAny(attemptID, `/\`) || attemptID == "." || attemptID == ".." {
		return "", fmt.Errorf("invalid attempt id %q", attemptID)
	}
	return filepath.Join(s.BasePath, attemptID+".json"), nil
}

// Save writes the attempt atomically: temp file, fsync, rename.
func (s *Store) Save(_ context.Context, attemptID string, state *domain.AttemptState) error {
	destPath, err := s.path(attemptID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure attempt directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal attempt: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, tmpPrefix+attemptID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace attempt file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move attempt file into place: %w", err)
	}
	return nil
}

// Load reads an attempt file.
func (s *Store) Load(_ context.Context, attemptID string) (*domain.AttemptState, error) {
	p, err := s.path(attemptID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read attempt file: %w", err)
	}

	var state domain.AttemptState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attempt: %w", err)
	}
	return &state, nil
}

// Delete removes the attempt file. Deleting a missing attempt is not an error.
func (s *Store) Delete(_ context.Context, attemptID string) error {
	p, err := s.path(attemptID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete attempt file: %w", err)
	}
	return nil
}

// List returns the ids of all stored attempts.
func (s *Store) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}
