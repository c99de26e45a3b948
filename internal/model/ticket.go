package model

import "strings"

// Status is the lifecycle state of an internal ITSM ticket.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPending    Status = "PENDING"
	StatusResolved   Status = "RESOLVED"
	StatusClosed     Status = "CLOSED"
)

// Statuses lists every internal status in workflow order.
var Statuses = []Status{
	StatusOpen,
	StatusInProgress,
	StatusPending,
	StatusResolved,
	StatusClosed,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPending, StatusResolved, StatusClosed:
		return true
	default:
		return false
	}
}

// ParseStatus accepts user input such as "in progress" or "in-progress".
func ParseStatus(s string) (Status, bool) {
	status := Status(normalizeEnum(s))
	return status, status.Valid()
}

// Priority is the urgency of an internal ITSM ticket.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Priorities lists every internal priority from lowest to highest.
var Priorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// ParsePriority accepts case-insensitive user input.
func ParsePriority(s string) (Priority, bool) {
	priority := Priority(normalizeEnum(s))
	return priority, priority.Valid()
}

// Ticket is the internal ITSM work item handed to the sync core.
// The core only reads it.
type Ticket struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
}

func normalizeEnum(s string) string {
	s = strings.TrimSpace(strings.ToUpper(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
