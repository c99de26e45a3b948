package jira

import (
	"encoding/json"
	"strings"
)

// Document is an Atlassian Document Format (ADF) node. The root node has
// type "doc" and version 1.
type Document struct {
	Type    string     `json:"type"`
	Version int        `json:"version,omitempty"`
	Text    string     `json:"text,omitempty"`
	Content []Document `json:"content,omitempty"`
}

// NewDocument wraps plain text into a single-paragraph ADF document.
func NewDocument(text string) Document {
	return Document{
		Type:    "doc",
		Version: 1,
		Content: []Document{{
			Type: "paragraph",
			Content: []Document{{
				Type: "text",
				Text: text,
			}},
		}},
	}
}

// ExtractText flattens an ADF description back to plain text: the text
// leaves in document order, each followed by a space, trimmed. A plain
// JSON string is returned unchanged. Null, empty or malformed input
// yields "".
func ExtractText(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(nodes []Document)
	walk = func(nodes []Document) {
		for _, n := range nodes {
			if n.Text != "" {
				b.WriteString(n.Text)
				b.WriteByte(' ')
			}
			walk(n.Content)
		}
	}
	walk(doc.Content)

	return strings.TrimSpace(b.String())
}
