package service_test

import (
	"testing"

	"github.com/danielledeleo/seocms/cms"
	"github.com/danielledeleo/seocms/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRuleService(t *testing.T) {
	app, cleanup := testutil.SetupTestApp(t)
	defer cleanup()

	rule := &cms.LinkRule{Keyword: "  CMS ", TargetPageKey: "cms-info", IsActive: true}
	require.NoError(t, app.LinkRules.CreateRule(rule))
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, "CMS", rule.Keyword)
	assert.Equal(t, 1, rule.MaxOccurrences)

	off := &cms.LinkRule{Keyword: "SEO", TargetPageKey: "seo", MaxOccurrences: 3}
	require.NoError(t, app.LinkRules.CreateRule(off))

	all, err := app.LinkRules.ListRules()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := app.LinkRules.ActiveRules()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, rule.ID, active[0].ID)

	off.IsActive = true
	require.NoError(t, app.LinkRules.UpdateRule(off))
	active, err = app.LinkRules.ActiveRules()
	require.NoError(t, err)
	assert.Len(t, active, 2)

	require.NoError(t, app.LinkRules.DeleteRule(rule.ID))
	all, err = app.LinkRules.ListRules()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	err = app.LinkRules.CreateRule(&cms.LinkRule{Keyword: " ", TargetPageKey: "x"})
	assert.ErrorIs(t, err, cms.ErrInvalidRule)
	err = app.LinkRules.CreateRule(&cms.LinkRule{Keyword: "x", TargetPageKey: "y", MaxOccurrences: -2})
	assert.ErrorIs(t, err, cms.ErrInvalidRule)
}
