package lifecycle

import (
	"sort"
	"strings"

	"github.com/garnizeh/intake/internal/apperr"
	"github.com/garnizeh/intake/pkg/models"
)

// Table maps a status to the statuses it may move to. A status with no
// entry, or an empty set, is terminal.
type Table[S comparable] map[S][]S

// Allowed reports whether from -> to is a permitted transition.
func (t Table[S]) Allowed(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether nothing can follow s.
func (t Table[S]) Terminal(s S) bool { return len(t[s]) == 0 }

// Known reports whether s is a state of the table.
func (t Table[S]) Known(s S) bool {
	_, ok := t[s]
	return ok
}

// checkTarget rejects a requested status that is not a state of t at all,
// as opposed to a known state that cannot be reached.
func checkTarget[S ~string](t Table[S], to S) error {
	if t.Known(to) {
		return nil
	}
	names := make([]string, 0, len(t))
	for s := range t {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return apperr.NewValidationError(map[string]string{"status": "must be one of " + strings.Join(names, " ")})
}

// JobTransitions: DRAFT must be published before it can be archived.
var JobTransitions = Table[models.JobStatus]{
	models.JobDraft:     {models.JobPublished},
	models.JobPublished: {models.JobArchived, models.JobDraft},
	models.JobArchived:  {},
}

// ApplicationTransitions walk the hiring pipeline one step at a time;
// REJECTED is reachable from every open state.
var ApplicationTransitions = Table[models.ApplicationStatus]{
	models.ApplicationNew:       {models.ApplicationReviewing, models.ApplicationRejected},
	models.ApplicationReviewing: {models.ApplicationInterview, models.ApplicationRejected},
	models.ApplicationInterview: {models.ApplicationOffer, models.ApplicationRejected},
	models.ApplicationOffer:     {models.ApplicationHired, models.ApplicationRejected},
	models.ApplicationHired:     {},
	models.ApplicationRejected:  {},
}

var QuoteTransitions = Table[models.QuoteStatus]{
	models.QuoteNew:      {models.QuoteInReview, models.QuoteClosed},
	models.QuoteInReview: {models.QuoteQuoted, models.QuoteClosed},
	models.QuoteQuoted:   {models.QuoteInReview, models.QuoteClosed},
	models.QuoteClosed:   {},
}
