package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/repository"
)

// RedirectService defines the interface for redirect operations.
type RedirectService interface {
	// Resolve returns the active redirect for a request path. Its hit
	// counter is bumped in the background.
	Resolve(path string) (*cms.Redirect, error)

	ListRedirects() ([]*cms.Redirect, error)
	CreateRedirect(r *cms.Redirect) error

	// Wait blocks until pending hit counter updates have finished.
	Wait()
}

type redirectService struct {
	repo repository.RedirectRepository
	hits sync.WaitGroup
}

// NewRedirectService creates a new RedirectService.
func NewRedirectService(repo repository.RedirectRepository) RedirectService {
	return &redirectService{repo: repo}
}

func (s *redirectService) Resolve(path string) (*cms.Redirect, error) {
	source := cms.NormalizePath(path)
	if source == "" {
		return nil, cms.ErrGenericNotFound
	}
	r, err := s.repo.SelectActiveRedirect(source)
	if err != nil {
		return nil, notFound(err)
	}

	// Counts are approximate; a failed increment is only logged.
	s.hits.Add(1)
	go func(id int64) {
		defer s.hits.Done()
		if err := s.repo.IncrementRedirectHits(id); err != nil {
			slog.Warn("failed to count redirect hit", "category", "redirect", "id", id, "error", err)
		}
	}(r.ID)

	return r, nil
}

func (s *redirectService) ListRedirects() ([]*cms.Redirect, error) {
	return s.repo.SelectRedirects()
}

func (s *redirectService) CreateRedirect(r *cms.Redirect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r.HitCount = 0
	r.CreatedAt = time.Now()
	return s.repo.InsertRedirect(r)
}

func (s *redirectService) Wait() {
	s.hits.Wait()
}
