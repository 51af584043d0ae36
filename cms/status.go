package cms

import (
	"fmt"
	"time"
)

// Status is the publication state of a page.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
	StatusError     Status = "error"
)

// transitions lists the states reachable from each state. StatusError is
// reachable from everywhere and is handled separately.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusPending},
	StatusPending:   {StatusDraft, StatusPublished},
	StatusPublished: {StatusArchived},
	StatusArchived:  {StatusPublished},
	StatusError:     {StatusDraft, StatusPending},
}

// ParseStatus converts s to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// CanTransition reports whether a page in state from may move to state to.
// Staying in the same state is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	if to == StatusError {
		_, known := transitions[from]
		return known
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequiresValidation reports whether entering the state runs the publish gate.
func (s Status) RequiresValidation() bool {
	return s == StatusPending || s == StatusPublished
}

// Transition moves the page to status to at time now. PublishedAt is stamped
// the first time the page is published and kept on later re-publication.
func (p *Page) Transition(to Status, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	if p.Status == to {
		return nil
	}
	p.Status = to
	p.UpdatedAt = now
	if to == StatusPublished && p.PublishedAt == nil {
		stamp := now
		p.PublishedAt = &stamp
	}
	return nil
}
