package github

import (
	"slices"
	"strings"

	"github.com/nhle/itsm-sync/internal/model"
)

// Labels carrying ticket priority and status on an issue.
const (
	LabelPriorityPrefix = "priority:"
	LabelStatusPrefix   = "status:"

	LabelPriorityLow      = "priority:low"
	LabelPriorityMedium   = "priority:medium"
	LabelPriorityHigh     = "priority:high"
	LabelPriorityCritical = "priority:critical"

	LabelStatusOpen       = "status:open"
	LabelStatusInProgress = "status:in-progress"
	LabelStatusPending    = "status:pending"
	LabelStatusResolved   = "status:resolved"
	LabelStatusClosed     = "status:closed"
)

// Issue states.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// IssueFields is a ticket expressed in GitHub's vocabulary.
type IssueFields struct {
	Title  string
	Body   string
	Labels []string
}

// MapTicketToIssue translates a ticket into issue fields. Labels are
// always the priority label followed by the status label.
func MapTicketToIssue(t model.Ticket) IssueFields {
	return IssueFields{
		Title:  t.Title,
		Body:   t.Description,
		Labels: []string{PriorityLabel(t.Priority), StatusLabel(t.Status)},
	}
}

// MapIssueToTicket translates an issue back into the internal view.
func MapIssueToTicket(i Issue) model.Ticket {
	labels := i.LabelNames()
	return model.Ticket{
		Title:       i.Title,
		Description: i.Body,
		Status:      StatusFromIssue(i.State, labels),
		Priority:    PriorityFromLabels(labels),
	}
}

// PriorityLabel is the label carrying p. Unknown priorities get the
// medium label.
func PriorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityLow:
		return LabelPriorityLow
	case model.PriorityMedium:
		return LabelPriorityMedium
	case model.PriorityHigh:
		return LabelPriorityHigh
	case model.PriorityCritical:
		return LabelPriorityCritical
	default:
		return LabelPriorityMedium
	}
}

// StatusLabel is the label carrying s. Unknown statuses get the open
// label.
func StatusLabel(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return LabelStatusOpen
	case model.StatusInProgress:
		return LabelStatusInProgress
	case model.StatusPending:
		return LabelStatusPending
	case model.StatusResolved:
		return LabelStatusResolved
	case model.StatusClosed:
		return LabelStatusClosed
	default:
		return LabelStatusOpen
	}
}

// IssueState is the open/closed state an issue should have for a status.
// Only CLOSED closes the issue; the finer status lives in the label.
func IssueState(s model.Status) string {
	if s == model.StatusClosed {
		return StateClosed
	}
	return StateOpen
}

// PriorityFromLabels picks the most severe priority label present.
// Issues without one are MEDIUM.
func PriorityFromLabels(labels []string) model.Priority {
	switch {
	case slices.Contains(labels, LabelPriorityCritical):
		return model.PriorityCritical
	case slices.Contains(labels, LabelPriorityHigh):
		return model.PriorityHigh
	case slices.Contains(labels, LabelPriorityLow):
		return model.PriorityLow
	default:
		return model.PriorityMedium
	}
}

// StatusFromIssue derives a status from the issue state and labels. A
// closed issue is CLOSED whatever its labels say.
func StatusFromIssue(state string, labels []string) model.Status {
	if state == StateClosed {
		return model.StatusClosed
	}
	switch {
	case slices.Contains(labels, LabelStatusInProgress):
		return model.StatusInProgress
	case slices.Contains(labels, LabelStatusPending):
		return model.StatusPending
	case slices.Contains(labels, LabelStatusResolved):
		return model.StatusResolved
	default:
		return model.StatusOpen
	}
}

var knownLabels = []string{
	LabelPriorityLow, LabelPriorityMedium, LabelPriorityHigh, LabelPriorityCritical,
	LabelStatusOpen, LabelStatusInProgress, LabelStatusPending, LabelStatusResolved, LabelStatusClosed,
}

// UnmappedLabels returns the priority and status labels that the reverse
// mappers do not recognize, such as "priority:p1" or "status:blocked".
func UnmappedLabels(labels []string) (priority, status []string) {
	for _, l := range labels {
		if slices.Contains(knownLabels, l) {
			continue
		}
		switch {
		case strings.HasPrefix(l, LabelPriorityPrefix):
			priority = append(priority, l)
		case strings.HasPrefix(l, LabelStatusPrefix):
			status = append(status, l)
		}
	}
	return priority, status
}
