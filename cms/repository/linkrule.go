package repository

import "github.com/danielledeleo/seocms/cms"

// LinkRuleRepository defines the interface for internal link rule persistence.
type LinkRuleRepository interface {
	// SelectLinkRules returns every rule in insertion order.
	SelectLinkRules() ([]*cms.LinkRule, error)

	// SelectActiveLinkRules returns active rules in insertion order.
	SelectActiveLinkRules() ([]*cms.LinkRule, error)

	InsertLinkRule(rule *cms.LinkRule) error
	UpdateLinkRule(rule *cms.LinkRule) error
	DeleteLinkRule(id string) error
}
