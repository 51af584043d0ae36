package render

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RemovedFragments lists the pieces of before that are missing from after,
// in document order. Used to show authors what the sanitizer took out.
func RemovedFragments(before, after string) []string {
	if before == after {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var removed []string
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffDelete {
			continue
		}
		if frag := strings.TrimSpace(d.Text); frag != "" {
			removed = append(removed, frag)
		}
	}
	return removed
}
