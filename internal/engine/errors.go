package engine

import (
	"fmt"
	"strings"
)

// ValidationError is returned for input rejected at the boundary.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTargetError reports a reclassification target that is not the inbox
// or a quadrant.
type InvalidTargetError struct {
	Target string
}

func (e InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %q (want inbox, q1, q2, q3 or q4)", e.Target)
}

// MissionHasChildrenError is returned by the reject delete policy.
type MissionHasChildrenError struct {
	ID       string
	Children int
}

func (e MissionHasChildrenError) Error() string {
	return fmt.Sprintf("mission %s has %d sub-mission(s); delete or move them first", shortID(e.ID), e.Children)
}

// NormalizeTitle trims a title and rejects empty ones. The stores accept any
// title; CLI and API callers validate with this first.
func NormalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", ValidationError{Field: "title", Reason: "title is required"}
	}
	return t, nil
}

// NormalizeDueDate accepts "" or a YYYY-MM-DD date.
func NormalizeDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, ok := ParseDueDate(s); !ok {
		return "", ValidationError{Field: "due date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return s, nil
}
