package ai

import (
	"strings"
	"time"
)

// Markers in provider error text that signal overload or quota exhaustion.
// Anything else is treated as fatal for the current call.
var retryableMarkers = []string{"503", "429", "UNAVAILABLE", "RESOURCE_EXHAUSTED"}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range retryableMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// retryState tracks the backoff schedule across the attempts of a single
// classification call. It never outlives the call.
type retryState struct {
	attempt   int
	nextDelay time.Duration
}

func newRetryState(base time.Duration) retryState {
	return retryState{nextDelay: base}
}

// advance moves to the next attempt, doubling the pending backoff delay.
func (s *retryState) advance() {
	s.attempt++
	s.nextDelay *= 2
}
