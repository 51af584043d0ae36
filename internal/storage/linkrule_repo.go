package storage

import (
	"time"

	"github.com/danielledeleo/seocms/cms"
	"github.com/pkg/errors"
)

const linkRuleColumns = `id, keyword, target_page_key, max_occurrences, is_active, created_at`

type linkRuleRow struct {
	ID             string    `db:"id"`
	Keyword        string    `db:"keyword"`
	TargetPageKey  string    `db:"target_page_key"`
	MaxOccurrences int       `db:"max_occurrences"`
	IsActive       bool      `db:"is_active"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r *linkRuleRow) toLinkRule() *cms.LinkRule {
	return &cms.LinkRule{
		ID:             r.ID,
		Keyword:        r.Keyword,
		TargetPageKey:  r.TargetPageKey,
		MaxOccurrences: r.MaxOccurrences,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt,
	}
}

func toLinkRules(rows []linkRuleRow) []*cms.LinkRule {
	rules := make([]*cms.LinkRule, len(rows))
	for i := range rows {
		rules[i] = rows[i].toLinkRule()
	}
	return rules
}

// Rules are returned in insertion order, the order the link rewriter applies them.

func (db *Store) SelectLinkRules() ([]*cms.LinkRule, error) {
	rows := []linkRuleRow{}
	if err := db.conn.Select(&rows, `SELECT `+linkRuleColumns+` FROM InternalLinkRule ORDER BY rowid`); err != nil {
		return nil, errors.Wrap(err, "select link rules")
	}
	return toLinkRules(rows), nil
}

func (db *Store) SelectActiveLinkRules() ([]*cms.LinkRule, error) {
	rows := []linkRuleRow{}
	if err := db.SelectActiveLinkRulesStmt.Select(&rows); err != nil {
		return nil, errors.Wrap(err, "select active link rules")
	}
	return toLinkRules(rows), nil
}

func (db *Store) InsertLinkRule(rule *cms.LinkRule) error {
	_, err := db.conn.Exec(`INSERT INTO InternalLinkRule (`+linkRuleColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.Keyword, rule.TargetPageKey, rule.MaxOccurrences, rule.IsActive, rule.CreatedAt.UTC())
	return errors.Wrapf(err, "insert link rule %q", rule.Keyword)
}

func (db *Store) UpdateLinkRule(rule *cms.LinkRule) error {
	result, err := db.conn.Exec(`UPDATE InternalLinkRule
		SET keyword = ?, target_page_key = ?, max_occurrences = ?, is_active = ?
		WHERE id = ?`,
		rule.Keyword, rule.TargetPageKey, rule.MaxOccurrences, rule.IsActive, rule.ID)
	if err != nil {
		return errors.Wrapf(err, "update link rule %s", rule.ID)
	}
	return expectOneRow(result, "update link rule "+rule.ID)
}

func (db *Store) DeleteLinkRule(id string) error {
	result, err := db.conn.Exec(`DELETE FROM InternalLinkRule WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete link rule %s", id)
	}
	return expectOneRow(result, "delete link rule "+id)
}
