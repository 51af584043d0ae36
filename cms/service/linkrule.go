package service

import (
	"strings"
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/cms/repository"
	"github.com/google/uuid"
)

// LinkRuleService defines the interface for internal link rule operations.
type LinkRuleService interface {
	// ListRules returns every rule in the order the rewriter applies them.
	ListRules() ([]*cms.LinkRule, error)

	// ActiveRules returns the rules applied when rendering.
	ActiveRules() ([]*cms.LinkRule, error)

	CreateRule(rule *cms.LinkRule) error
	UpdateRule(rule *cms.LinkRule) error
	DeleteRule(id string) error
}

type linkRuleService struct {
	repo repository.LinkRuleRepository
}

// NewLinkRuleService creates a new LinkRuleService.
func NewLinkRuleService(repo repository.LinkRuleRepository) LinkRuleService {
	return &linkRuleService{repo: repo}
}

func (s *linkRuleService) ListRules() ([]*cms.LinkRule, error) {
	return s.repo.SelectLinkRules()
}

func (s *linkRuleService) ActiveRules() ([]*cms.LinkRule, error) {
	return s.repo.SelectActiveLinkRules()
}

func (s *linkRuleService) CreateRule(rule *cms.LinkRule) error {
	rule.Keyword = strings.TrimSpace(rule.Keyword)
	rule.TargetPageKey = strings.TrimSpace(rule.TargetPageKey)
	if rule.MaxOccurrences == 0 {
		rule.MaxOccurrences = 1
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.CreatedAt = time.Now()
	return s.repo.InsertLinkRule(rule)
}

func (s *linkRuleService) UpdateRule(rule *cms.LinkRule) error {
	rule.Keyword = strings.TrimSpace(rule.Keyword)
	rule.TargetPageKey = strings.TrimSpace(rule.TargetPageKey)
	if err := rule.Validate(); err != nil {
		return err
	}
	return notFound(s.repo.UpdateLinkRule(rule))
}

func (s *linkRuleService) DeleteRule(id string) error {
	return notFound(s.repo.DeleteLinkRule(id))
}
