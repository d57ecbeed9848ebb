package workflow

import (
	"fmt"

	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

// DocumentStatus enumerates document approval states.
type DocumentStatus string

const (
	StatusDraft      DocumentStatus = "DRAFT"
	StatusInReview   DocumentStatus = "IN_REVIEW"
	StatusApproved   DocumentStatus = "APPROVED"
	StatusDeprecated DocumentStatus = "DEPRECATED"
)

// Valid reports whether the status is one of the defined states.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInReview, StatusApproved, StatusDeprecated:
		return true
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func (s DocumentStatus) Terminal() bool {
	return s == StatusDeprecated
}

// Action enumerates requested status changes.
type Action string

const (
	ActionSubmit    Action = "SUBMIT"
	ActionApprove   Action = "APPROVE"
	ActionDeprecate Action = "DEPRECATE"
)

// Valid reports whether the action is one of the defined actions.
func (a Action) Valid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionDeprecate:
		return true
	}
	return false
}

// transitions holds the full legal (status, action) product. Approved
// documents never move back to review; revision happens through a new
// version upload instead.
var transitions = map[DocumentStatus]map[Action]DocumentStatus{
	StatusDraft: {
		ActionSubmit:    StatusInReview,
		ActionDeprecate: StatusDeprecated,
	},
	StatusInReview: {
		ActionApprove:   StatusApproved,
		ActionDeprecate: StatusDeprecated,
	},
	StatusApproved: {
		ActionDeprecate: StatusDeprecated,
	},
}

// NextStatus computes the resulting status for an action, or fails with an
// invalid-transition error when the pair is not legal. Pure and total over
// the status/action product; DEPRECATED rejects every action.
func NextStatus(current DocumentStatus, action Action) (DocumentStatus, error) {
	if !current.Valid() {
		return "", appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("unknown document status %q", current))
	}
	if !action.Valid() {
		return "", appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("unknown action %q", action))
	}
	next, ok := transitions[current][action]
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("action %s is not allowed from status %s", action, current))
	}
	return next, nil
}
