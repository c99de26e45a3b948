package azuredevops

import "encoding/json"

// Work item field reference names used by the mapper.
const (
	FieldTitle        = "System.Title"
	FieldDescription  = "System.Description"
	FieldState        = "System.State"
	FieldWorkItemType = "System.WorkItemType"
	FieldPriority     = "Microsoft.VSTS.Common.Priority"
)

// Field is one work item field in Azure DevOps' native vocabulary.
// Slices of Field keep the JSON-patch document in a stable order.
type Field struct {
	Name  string
	Value any
}

// PatchOperation is a single JSON-patch operation as accepted by the work
// item create and update endpoints.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// WorkItem is the response from the work item endpoints.
type WorkItem struct {
	ID     int            `json:"id"`
	Rev    int            `json:"rev"`
	Fields WorkItemFields `json:"fields"`
	URL    string         `json:"url"`
	Links  *Links         `json:"_links,omitempty"`

	// Raw is the undecoded response body.
	Raw json.RawMessage `json:"-"`
}

// WorkItemFields holds the subset of work item fields the mapper reads.
type WorkItemFields struct {
	Title        string `json:"System.Title"`
	Description  string `json:"System.Description"`
	State        string `json:"System.State"`
	WorkItemType string `json:"System.WorkItemType"`
	Priority     int    `json:"Microsoft.VSTS.Common.Priority"`
}

// Links holds the hypermedia links of a work item.
type Links struct {
	HTML *Link `json:"html,omitempty"`
}

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// WebURL returns the browser URL of the work item, or the API URL when
// the response carried no html link.
func (w *WorkItem) WebURL() string {
	if w.Links != nil && w.Links.HTML != nil && w.Links.HTML.Href != "" {
		return w.Links.HTML.Href
	}
	return w.URL
}

// WorkItemType describes a work item type defined in a project.
type WorkItemType struct {
	Name          string `json:"name"`
	ReferenceName string `json:"referenceName"`
	Description   string `json:"description"`
}

// WorkItemTypeList is the response from GET _apis/wit/workitemtypes.
type WorkItemTypeList struct {
	Count int            `json:"count"`
	Value []WorkItemType `json:"value"`
}

// IdentityRef identifies a user.
type IdentityRef struct {
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName"`
}

// Comment is a discussion comment on a work item.
type Comment struct {
	ID          int         `json:"id"`
	WorkItemID  int         `json:"workItemId"`
	Text        string      `json:"text"`
	CreatedBy   IdentityRef `json:"createdBy"`
	CreatedDate string      `json:"createdDate"`
}

// CommentList is the response from GET workItems/{id}/comments.
type CommentList struct {
	TotalCount int       `json:"totalCount"`
	Count      int       `json:"count"`
	Comments   []Comment `json:"comments"`
}

// Project is the response from GET _apis/projects/{project}.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}
