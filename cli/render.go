// ABOUTME: Terminal rendering for import reports, contact lists and contact views
// ABOUTME: Uses lipgloss styles that degrade to plain text when output is not a TTY
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/cxboard/importer"
	"github.com/harperreed/cxboard/models"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(12)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// maxIssues caps how many errors and warnings are listed before summarizing.
const maxIssues = 20

func renderReport(r *importer.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Import "+r.RunID) + "\n")
	b.WriteString(okStyle.Render("✓ "+r.Message) + "\n\n")

	row := func(label string, v int) {
		fmt.Fprintf(&b, "%s %d\n", labelStyle.Render(label), v)
	}
	row("Records", r.Records)
	row("Contacts", r.Imported.Contacts)
	row("Activities", r.Imported.Activities)
	row("Surveys", r.Imported.Surveys)
	row("Skipped", r.Skipped)

	renderIssues(&b, "Errors", errorStyle, r.Errors)
	renderIssues(&b, "Warnings", warnStyle, r.Warnings)
	return b.String()
}

func renderIssues(b *strings.Builder, title string, style lipgloss.Style, issues []importer.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", style.Render(fmt.Sprintf("%s (%d)", title, len(issues))))
	for i, issue := range issues {
		if i == maxIssues {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("  … and %d more", len(issues)-maxIssues)) + "\n")
			break
		}
		b.WriteString("  " + issue.String() + "\n")
	}
}

func writeContactTable(w io.Writer, contacts []models.Contact) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tDIRECTORY\tCREATED")
	_, _ = fmt.Fprintln(tw, "--\t----\t-----\t---------\t-------")
	for i := range contacts {
		c := &contacts[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.DisplayName(), orDash(c.DirectoryFields.Text("email")), c.Directory,
			c.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func renderContact(view models.ContactWithData) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(view.DisplayName()) + "\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("ID"), view.ID)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Directory"), view.Directory)
	for _, key := range view.DirectoryFields.Keys() {
		v, _ := view.DirectoryFields.Get(key)
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(key), v.Text())
	}

	if len(view.Tags) > 0 {
		labels := make([]string, 0, len(view.Tags))
		for _, t := range view.Tags {
			labels = append(labels, t.Label)
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Tags"), strings.Join(labels, ", "))
	}

	m := view.CommunicationMetrics
	fmt.Fprintf(&b, "\n%s read %.0f%%  responded %.0f%%  last contact %s\n",
		labelStyle.Render("Metrics"), m.EmailReadRate*100, m.ResponseRate*100, orDash(m.LastContact))
	if s := view.NLPInsights; s.OverallSentiment != "" {
		fmt.Fprintf(&b, "%s %s (%.0f%%)\n", labelStyle.Render("Sentiment"), s.OverallSentiment, s.Confidence*100)
	}

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("Activities (%d)", len(view.Activities))))
	for _, a := range view.Activities {
		date := a.CreatedAt
		if a.ActivityUploadDate != nil {
			date = *a.ActivityUploadDate
		}
		fmt.Fprintf(&b, "  %s  %s  %s\n", date.Format("2006-01-02"), a.Activity, mutedStyle.Render(a.ID))
	}

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("Surveys (%d)", len(view.Surveys))))
	for _, s := range view.Surveys {
		link := "unlinked"
		if s.ActivityID != nil {
			link = "← " + *s.ActivityID
		}
		fmt.Fprintf(&b, "  %s  %s [%s, %s]  %s\n",
			s.SentAt.Format("2006-01-02"), s.SurveyTitle, s.Channel, s.Status, mutedStyle.Render(link))
	}

	fmt.Fprintf(&b, "\n%s\n", titleStyle.Render(fmt.Sprintf("Notes (%d)", len(view.Notes))))
	for _, n := range view.Notes {
		fmt.Fprintf(&b, "  %s  %s: %s\n", n.CreatedAt.Format("2006-01-02"), n.AuthorInitials, n.Content)
	}
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
