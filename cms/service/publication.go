package service

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/repository"
)

// BatchInterval is the minimum time between unforced publication batches.
const BatchInterval = 24 * time.Hour

// BatchResult describes one run of the publication batch.
type BatchResult struct {
	// Skipped explains why nothing ran. Empty when the batch ran.
	Skipped   string                          `json:"skipped,omitempty"`
	Published []string                        `json:"published"`
	Failed    map[string]cms.ValidationErrors `json:"failed"`
	RanAt     time.Time                       `json:"ran_at"`
}

// PublicationService defines the interface for the scheduled publication batch.
type PublicationService interface {
	// RunBatch publishes up to the configured number of pending pages,
	// oldest schedule first. Pages failing the publish gate move to the
	// error state. Unless force is set, a batch within BatchInterval of
	// the previous one is skipped.
	RunBatch(force bool) (*BatchResult, error)
}

type publicationService struct {
	db    *sql.DB
	repo  repository.PageRepository
	pages PageService
}

// NewPublicationService creates a new PublicationService. Runtime settings are
// read from db on every run.
func NewPublicationService(db *sql.DB, repo repository.PageRepository, pages PageService) PublicationService {
	return &publicationService{db: db, repo: repo, pages: pages}
}

func (s *publicationService) RunBatch(force bool) (*BatchResult, error) {
	config, err := cms.LoadRuntimeConfig(s.db)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := &BatchResult{
		Published: []string{},
		Failed:    map[string]cms.ValidationErrors{},
		RanAt:     now,
	}

	switch {
	case !config.PublicationActive:
		result.Skipped = "publication is disabled"
	case !force && !config.LastPublicationRun.IsZero() && now.Sub(config.LastPublicationRun) < BatchInterval:
		result.Skipped = "last batch ran at " + config.LastPublicationRun.Format(time.RFC3339)
	case config.PagesPerDay < 1:
		result.Skipped = "pages per day is zero"
	}
	if result.Skipped != "" {
		slog.Info("publication batch skipped", "category", "publication", "reason", result.Skipped)
		return result, nil
	}

	pending, err := s.repo.SelectPendingPages(config.PagesPerDay)
	if err != nil {
		return nil, err
	}

	for _, page := range pending {
		_, err := s.pages.Transition(page.PageKey, cms.StatusPublished)
		var violations cms.ValidationErrors
		switch {
		case err == nil:
			result.Published = append(result.Published, page.PageKey)
			slog.Info("page published", "category", "publication", "page_key", page.PageKey)
		case errors.As(err, &violations):
			result.Failed[page.PageKey] = violations
			slog.Warn("page failed publish validation", "category", "publication",
				"page_key", page.PageKey, "violations", violations.Error())
			if _, err := s.pages.Transition(page.PageKey, cms.StatusError); err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	}

	if err := cms.SetLastPublicationRun(s.db, now); err != nil {
		return nil, err
	}
	slog.Info("publication batch finished", "category", "publication",
		"published", len(result.Published), "failed", len(result.Failed))
	return result, nil
}
