package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/itsm-sync/internal/integration"
	"github.com/nhle/itsm-sync/internal/model"
	appsync "github.com/nhle/itsm-sync/internal/sync"
	"github.com/nhle/itsm-sync/internal/theme"
)

// checkResult is the outcome of validating one integration.
type checkResult struct {
	Type model.IntegrationType
	Err  error
}

func (c checkResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Type  model.IntegrationType `json:"type"`
		OK    bool                  `json:"ok"`
		Error string                `json:"error,omitempty"`
	}{Type: c.Type, OK: c.Err == nil}
	if c.Err != nil {
		out.Error = c.Err.Error()
	}
	return json.Marshal(out)
}

// pushResult is the JSON form of a sync.Result.
type pushResult struct {
	Type      model.IntegrationType       `json:"type"`
	Operation string                      `json:"operation"`
	External  *integration.ExternalTicket `json:"external,omitempty"`
	Link      *model.ExternalLink         `json:"link,omitempty"`
	Error     string                      `json:"error,omitempty"`
}

func pushResults(results []appsync.Result) []pushResult {
	out := make([]pushResult, 0, len(results))
	for _, r := range results {
		pr := pushResult{Type: r.Type, Operation: r.Operation, External: r.External, Link: r.Link}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		}
		out = append(out, pr)
	}
	return out
}

// render prints v as indented JSON with --json, otherwise the styled text.
func (a *App) render(v any, text func() string) error {
	if a.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(a.stdout, text())
	return err
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, theme.LabelStyle.Render(label), value)
}

func renderExternal(ext *integration.ExternalTicket) string {
	header := theme.IntegrationLabelStyle(ext.Type).Render(string(ext.Type)) + " " +
		theme.HeaderStyle.Render(ext.ID)

	lines := []string{header}
	if ext.URL != "" {
		lines = append(lines, field("url", ext.URL))
	}
	if t := ext.Ticket; t != nil {
		lines = append(lines,
			field("title", t.Title),
			field("status", theme.StatusStyle(t.Status).Render(string(t.Status))),
			field("priority", theme.PriorityStyle(t.Priority).Render(string(t.Priority))),
		)
		if t.Description != "" {
			lines = append(lines, "", t.Description)
		}
	}
	return theme.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderComment(c integration.Comment) string {
	meta := theme.HelpStyle.Render(fmt.Sprintf("#%s %s %s", c.ID, c.Author, c.CreatedAt))
	return lipgloss.JoinVertical(lipgloss.Left, meta, c.Body)
}

func renderComments(comments []integration.Comment) string {
	if len(comments) == 0 {
		return theme.HelpStyle.Render("no comments")
	}
	blocks := make([]string, 0, len(comments))
	for _, c := range comments {
		blocks = append(blocks, renderComment(c))
	}
	return strings.Join(blocks, "\n\n")
}

func renderItemTypes(types []integration.ItemType) string {
	if len(types) == 0 {
		return theme.HelpStyle.Render("no item types")
	}
	lines := make([]string, 0, len(types))
	for _, t := range types {
		line := field(t.ID, t.Name)
		if t.Description != "" {
			line += " " + theme.HelpStyle.Render(t.Description)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderChecks(results []checkResult) string {
	if len(results) == 0 {
		return theme.HelpStyle.Render("no integrations enabled")
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		label := theme.IntegrationLabelStyle(r.Type).Render(string(r.Type))
		if r.Err != nil {
			lines = append(lines, label+" "+theme.ErrorStyle.Render("FAIL")+" "+r.Err.Error())
			continue
		}
		lines = append(lines, label+" "+theme.OKStyle.Render("OK"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPush(ticketID string, results []appsync.Result) string {
	lines := []string{theme.HeaderStyle.Render("push " + ticketID)}
	if len(results) == 0 {
		lines = append(lines, theme.HelpStyle.Render("no integrations enabled"))
	}
	for _, r := range results {
		label := theme.IntegrationLabelStyle(r.Type).Render(string(r.Type))
		if r.Err != nil {
			lines = append(lines, fmt.Sprintf("%s %s %s %s",
				label, theme.ErrorStyle.Render("FAIL"), r.Operation, r.Err))
			continue
		}
		line := fmt.Sprintf("%s %s %s %s", label, theme.OKStyle.Render("OK"), r.Operation, r.External.ID)
		if r.Link != nil && r.Link.URL != "" {
			line += " " + theme.HelpStyle.Render(r.Link.URL)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderLinks(links []model.ExternalLink) string {
	if len(links) == 0 {
		return theme.HelpStyle.Render("no links")
	}
	lines := make([]string, 0, len(links))
	for _, l := range links {
		lines = append(lines, fmt.Sprintf("%-12s %s %-10s %s",
			l.TicketID,
			theme.IntegrationLabelStyle(l.Type).Render(string(l.Type)),
			l.ExternalID,
			theme.HelpStyle.Render(l.URL),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderLog(entries []model.SyncEntry) string {
	if len(entries) == 0 {
		return theme.HelpStyle.Render("no sync entries")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		outcome := theme.OKStyle.Render("OK  ")
		if !e.Succeeded {
			outcome = theme.ErrorStyle.Render("FAIL")
		}
		line := fmt.Sprintf("%s %s %-12s %s %-7s %s",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			outcome,
			e.TicketID,
			theme.IntegrationLabelStyle(e.Type).Render(string(e.Type)),
			e.Operation,
			e.ExternalID,
		)
		if e.Error != "" {
			line += " " + theme.HelpStyle.Render(e.Error)
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
