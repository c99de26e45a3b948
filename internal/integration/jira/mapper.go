package jira

import "github.com/nhle/itsm-sync/internal/model"

// MapTicketToIssue translates a ticket into the fields of a new issue in
// the given project.
func MapTicketToIssue(t model.Ticket, projectKey, issueTypeID string) IssueInput {
	return IssueInput{
		ProjectKey:  projectKey,
		IssueTypeID: issueTypeID,
		Summary:     t.Title,
		Description: t.Description,
		Priority:    PriorityName(t.Priority),
	}
}

// MapIssueToTicket translates an issue back into the internal view.
func MapIssueToTicket(i Issue) model.Ticket {
	var status, priority string
	if i.Fields.Status != nil {
		status = i.Fields.Status.Name
	}
	if i.Fields.Priority != nil {
		priority = i.Fields.Priority.Name
	}
	return model.Ticket{
		Title:       i.Fields.Summary,
		Description: ExtractText(i.Fields.Description),
		Status:      StatusFromName(status),
		Priority:    PriorityFromName(priority),
	}
}

// PriorityName maps a ticket priority to a Jira priority name.
func PriorityName(p model.Priority) string {
	switch p {
	case model.PriorityLow:
		return "Low"
	case model.PriorityMedium:
		return "Medium"
	case model.PriorityHigh:
		return "High"
	case model.PriorityCritical:
		return "Highest"
	default:
		return "Medium"
	}
}

// PriorityFromName maps a Jira priority name to a ticket priority. Both
// Lowest and Low become LOW.
func PriorityFromName(name string) model.Priority {
	p, _ := priorityFromName(name)
	return p
}

// KnownPriorityName reports whether PriorityFromName recognizes name.
func KnownPriorityName(name string) bool {
	_, ok := priorityFromName(name)
	return ok
}

func priorityFromName(name string) (model.Priority, bool) {
	switch name {
	case "Lowest", "Low":
		return model.PriorityLow, true
	case "Medium":
		return model.PriorityMedium, true
	case "High":
		return model.PriorityHigh, true
	case "Highest":
		return model.PriorityCritical, true
	default:
		return model.PriorityMedium, false
	}
}

// StatusFromName maps the default Jira workflow's status names. Custom
// workflow statuses fall back to OPEN.
func StatusFromName(name string) model.Status {
	s, _ := statusFromName(name)
	return s
}

// KnownStatusName reports whether StatusFromName recognizes name.
func KnownStatusName(name string) bool {
	_, ok := statusFromName(name)
	return ok
}

func statusFromName(name string) (model.Status, bool) {
	switch name {
	case "To Do":
		return model.StatusOpen, true
	case "In Progress":
		return model.StatusInProgress, true
	case "Done":
		return model.StatusResolved, true
	case "Closed":
		return model.StatusClosed, true
	default:
		return model.StatusOpen, false
	}
}
