package azuredevops

import "github.com/nhle/itsm-sync/internal/model"

// Work item states of the default Agile/Scrum-like process.
const (
	StateNew      = "New"
	StateActive   = "Active"
	StateResolved = "Resolved"
	StateClosed   = "Closed"
)

// MapTicketToWorkItem translates a ticket into work item fields, in the
// order they are written to the JSON-patch document.
func MapTicketToWorkItem(t model.Ticket) []Field {
	return []Field{
		{Name: FieldTitle, Value: t.Title},
		{Name: FieldDescription, Value: t.Description},
		{Name: FieldState, Value: StateForStatus(t.Status)},
		{Name: FieldPriority, Value: PriorityValue(t.Priority)},
	}
}

// MapWorkItemToTicket translates a work item back into the internal view.
func MapWorkItemToTicket(w WorkItem) model.Ticket {
	return model.Ticket{
		Title:       w.Fields.Title,
		Description: w.Fields.Description,
		Status:      StatusForState(w.Fields.State),
		Priority:    PriorityForValue(w.Fields.Priority),
	}
}

// StateForStatus maps a ticket status to a work item state. The process
// has no "pending" state, so PENDING is reported as Resolved.
func StateForStatus(s model.Status) string {
	switch s {
	case model.StatusOpen:
		return StateNew
	case model.StatusInProgress:
		return StateActive
	case model.StatusPending, model.StatusResolved:
		return StateResolved
	case model.StatusClosed:
		return StateClosed
	default:
		return StateNew
	}
}

// StatusForState maps a work item state to a ticket status. Resolved
// always comes back as RESOLVED, even for a ticket sent as PENDING.
func StatusForState(state string) model.Status {
	s, _ := statusForState(state)
	return s
}

// KnownState reports whether StatusForState recognizes state.
func KnownState(state string) bool {
	_, ok := statusForState(state)
	return ok
}

func statusForState(state string) (model.Status, bool) {
	switch state {
	case StateNew:
		return model.StatusOpen, true
	case StateActive:
		return model.StatusInProgress, true
	case StateResolved:
		return model.StatusResolved, true
	case StateClosed:
		return model.StatusClosed, true
	default:
		return model.StatusOpen, false
	}
}

// PriorityValue maps a ticket priority to the 1 (highest) .. 4 (lowest)
// Microsoft.VSTS.Common.Priority scale.
func PriorityValue(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 1
	case model.PriorityHigh:
		return 2
	case model.PriorityMedium:
		return 3
	case model.PriorityLow:
		return 4
	default:
		return 3
	}
}

// PriorityForValue is the inverse of PriorityValue.
func PriorityForValue(v int) model.Priority {
	p, _ := priorityForValue(v)
	return p
}

// KnownPriorityValue reports whether PriorityForValue recognizes v.
func KnownPriorityValue(v int) bool {
	_, ok := priorityForValue(v)
	return ok
}

func priorityForValue(v int) (model.Priority, bool) {
	switch v {
	case 1:
		return model.PriorityCritical, true
	case 2:
		return model.PriorityHigh, true
	case 3:
		return model.PriorityMedium, true
	case 4:
		return model.PriorityLow, true
	default:
		return model.PriorityMedium, false
	}
}
