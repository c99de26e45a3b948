package jira

import "encoding/json"

// Issue represents a single Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`

	Raw json.RawMessage `json:"-"`
}

// IssueFields contains the standard fields of a Jira issue.
type IssueFields struct {
	Summary   string    `json:"summary"`
	Status    *Status   `json:"status"`
	Priority  *Priority `json:"priority"`
	IssueType IssueType `json:"issuetype"`
	Assignee  *User     `json:"assignee"`
	Reporter  *User     `json:"reporter"`
	Project   Project   `json:"project"`
	Created   string    `json:"created"`
	Updated   string    `json:"updated"`
	Labels    []string  `json:"labels,omitempty"`

	// Description is an ADF document in API v3, but older payloads and
	// some proxies return a plain string. ExtractText handles both.
	Description json.RawMessage `json:"description,omitempty"`
}

// Status represents the status of a Jira issue.
type Status struct {
	Name           string         `json:"name"`
	ID             string         `json:"id"`
	StatusCategory StatusCategory `json:"statusCategory"`
}

// StatusCategory is the broad category a status belongs to.
type StatusCategory struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Priority represents the priority level of a Jira issue.
type Priority struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// IssueType represents the type of a Jira issue (Bug, Task, etc.).
type IssueType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Subtask     bool   `json:"subtask,omitempty"`
}

// User represents a Jira Cloud user.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       bool   `json:"active"`
}

// Project represents a Jira project.
type Project struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// CreatedIssue is the response from POST /issue. It carries no fields.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`

	Raw json.RawMessage `json:"-"`
}

// Comment represents a single comment on a Jira issue.
type Comment struct {
	ID      string          `json:"id"`
	Body    json.RawMessage `json:"body"`
	Author  User            `json:"author"`
	Created string          `json:"created"`
	Updated string          `json:"updated"`
}

// CommentPage holds a paginated list of comments.
type CommentPage struct {
	Comments   []Comment `json:"comments"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	StartAt    int       `json:"startAt"`
}

// IssueInput is a ticket expressed in Jira's create vocabulary.
type IssueInput struct {
	ProjectKey  string
	IssueTypeID string
	Summary     string
	Description string
	Priority    string
}

// createFields is the "fields" object of POST /issue.
type createFields struct {
	Project     Project   `json:"project"`
	IssueType   idRef     `json:"issuetype"`
	Summary     string    `json:"summary"`
	Description Document  `json:"description"`
	Priority    *Priority `json:"priority,omitempty"`
}

// updateFields is the "fields" object of PUT /issue/{key}.
type updateFields struct {
	Summary     string    `json:"summary"`
	Description Document  `json:"description"`
	Priority    *Priority `json:"priority,omitempty"`
}

type idRef struct {
	ID string `json:"id"`
}
