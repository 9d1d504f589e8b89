package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/surveyflow/pkg/domain"
)

// WatchPattern selects the survey documents observed by Watch.
const WatchPattern = "**/*.{md,json,yaml,yml}"

// Loader adapts a Loam repository to ports.SurveyLoader.
// Each document is one survey: JSON/YAML files carry the whole survey, Markdown files
// carry it as frontmatter with the body used as description.
type Loader struct {
	Repo *loam.TypedRepository[SurveyMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[SurveyMetadata]) *Loader {
	return &Loader{Repo: repo}
}

// GetSurvey loads and decodes one survey document.
func (l *Loader) GetSurvey(ctx context.Context, id string) (*domain.Survey, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		ids, listErr := l.ListSurveys(ctx)
		if listErr == nil && !slices.Contains(ids, trimExtension(id)) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, id)
		}
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	surveyID := doc.Data.ID
	if surveyID == "" {
		surveyID = doc.ID
	}

	s, err := toSurvey(trimExtension(surveyID), doc.Data, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("invalid survey %s: %w", id, err)
	}
	return s, nil
}

// ListSurveys lists the ids of all survey documents.
// Two documents resolving to the same id are reported as a collision.
func (l *Loader) ListSurveys(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: survey '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Watch implements ports.Watchable. It sends the id of every changed document.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, WatchPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
