package cms

import (
	"fmt"
	"strings"
	"time"
)

// LinkRule maps a keyword to a target page, with a cap on how many
// occurrences are linked per render.
type LinkRule struct {
	ID             string
	Keyword        string
	TargetPageKey  string
	MaxOccurrences int
	IsActive       bool
	CreatedAt      time.Time
}

// Validate checks a rule before it is stored.
func (r *LinkRule) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return fmt.Errorf("%w: keyword is empty", ErrInvalidRule)
	}
	if strings.TrimSpace(r.TargetPageKey) == "" {
		return fmt.Errorf("%w: target page is empty", ErrInvalidRule)
	}
	if r.MaxOccurrences < 1 {
		return fmt.Errorf("%w: max occurrences must be at least 1", ErrInvalidRule)
	}
	return nil
}
