package workflow

import (
	"math"
	"time"
)

// ExpiryState classifies how close a document is to its expiry date.
type ExpiryState string

const (
	// ExpiryNotApplicable means the document carries no expiry date.
	ExpiryNotApplicable ExpiryState = "NOT_APPLICABLE"
	// ExpiryExpired means the expiry date has passed.
	ExpiryExpired ExpiryState = "EXPIRED"
	// ExpiryUrgent means the document expires within 7 days.
	ExpiryUrgent ExpiryState = "URGENT"
	// ExpiryUpcoming means the document expires within 8 to 30 days.
	ExpiryUpcoming ExpiryState = "UPCOMING"
	// ExpiryNone means expiry is more than 30 days out and not surfaced.
	ExpiryNone ExpiryState = "NONE"
)

// ClassifyExpiry buckets a document expiry timestamp relative to now.
// Day distance uses ceiling division: a document 0.1 days past due is
// EXPIRED and one 6.9 days out counts as 7 days, still URGENT.
func ClassifyExpiry(expiresAt *time.Time, now time.Time) ExpiryState {
	if expiresAt == nil {
		return ExpiryNotApplicable
	}
	days := int(math.Ceil(expiresAt.Sub(now).Hours() / 24))
	switch {
	case days <= 0:
		return ExpiryExpired
	case days <= 7:
		return ExpiryUrgent
	case days <= 30:
		return ExpiryUpcoming
	default:
		return ExpiryNone
	}
}
