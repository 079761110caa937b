package assignment

import "fmt"

// State machine for assignment status transitions.
var validTransitions = map[Status][]Status{
	StatusCheckedOut: {
		StatusReturned,
		StatusOverdue,
	},
	StatusOverdue: {
		StatusReturned,
		StatusUnreturned,
	},
	StatusReturned: {
		// Terminal state - no transitions
	},
	StatusUnreturned: {
		// Terminal state - no transitions
	},
}

// ValidateTransition checks if a status transition is allowed.
func ValidateTransition(current, next Status) error {
	allowed, exists := validTransitions[current]
	if !exists {
		return fmt.Errorf("%w: unknown status %s", ErrInvalidTransition, current)
	}

	for _, s := range allowed {
		if next == s {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}

// AllowedTransitions returns the statuses reachable from current.
func AllowedTransitions(current Status) []Status {
	return validTransitions[current]
}
