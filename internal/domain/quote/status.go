// Package quote holds the quote intake core: the service/plan catalog, the
// surcharge table and pricing engine, submission validation and the status
// machine quotes move through after submission.
package quote

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrUnknownStatus           = errors.New("unknown status")
	ErrUnknownOption           = errors.New("unknown option")
	ErrIncompleteQuote         = errors.New("incomplete quote")
	ErrNotFound                = errors.New("quote not found")
)

// Status is the lifecycle state of a submitted quote.
type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusResponded Status = "responded"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

// AllStatuses lists statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusPending, StatusReviewing, StatusResponded, StatusRejected, StatusArchived}
}

// AllStatusValues returns the statuses as strings, for schema enums.
func AllStatusValues() []string {
	out := make([]string, 0, 5)
	for _, s := range AllStatuses() {
		out = append(out, string(s))
	}
	return out
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusResponded, StatusRejected, StatusArchived:
		return true
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// transitions lists the allowed moves other than "anything live -> archived".
var transitions = map[Status][]Status{
	StatusPending:   {StatusReviewing},
	StatusReviewing: {StatusResponded, StatusRejected},
}

// CanTransition reports whether a quote in from may move to to.
// Archived is terminal; every other status may be archived.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() || from == StatusArchived {
		return false
	}
	if to == StatusArchived {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates a move and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
	}
	return to, nil
}

// NextStatuses lists the statuses reachable from s.
func NextStatuses(s Status) []Status {
	var out []Status
	for _, to := range AllStatuses() {
		if CanTransition(s, to) {
			out = append(out, to)
		}
	}
	return out
}
