// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes contacts per directory, survey statuses and sentiment labels
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type DashboardStats struct {
	TotalContacts   int
	TotalActivities int
	TotalSurveys    int

	ByDirectory []Bucket
	ByStatus    []Bucket
	BySentiment []Bucket

	// Contacts with no activities and no surveys.
	Unlinked int
}

type Bucket struct {
	Label string
	Count int
}

func GenerateDashboardStats(ctx context.Context, store Reader) (*DashboardStats, error) {
	contacts, err := store.ListContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	stats := &DashboardStats{TotalContacts: len(contacts)}
	directories := map[string]int{}
	statuses := map[string]int{}
	sentiments := map[string]int{}

	for _, c := range contacts {
		directories[c.Directory]++

		activities, err := store.ListActivities(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch activities: %w", err)
		}
		surveys, err := store.ListSurveys(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch surveys: %w", err)
		}
		stats.TotalActivities += len(activities)
		stats.TotalSurveys += len(surveys)
		if len(activities) == 0 && len(surveys) == 0 {
			stats.Unlinked++
		}

		for _, s := range surveys {
			statuses[s.Status]++
			label := "unlabeled"
			if s.OpenEndedSentiment != nil {
				label = *s.OpenEndedSentiment
			}
			sentiments[label]++
		}
	}

	stats.ByDirectory = buckets(directories)
	stats.ByStatus = buckets(statuses)
	stats.BySentiment = buckets(sentiments)
	return stats, nil
}

// buckets sorts by count descending, then label.
func buckets(m map[string]int) []Bucket {
	out := make([]Bucket, 0, len(m))
	for label, n := range m {
		out = append(out, Bucket{Label: label, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CXBOARD DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d contacts  %d activities  %d surveys\n\n",
		stats.TotalContacts, stats.TotalActivities, stats.TotalSurveys))

	renderBuckets(&out, "DIRECTORIES", stats.ByDirectory)
	renderBuckets(&out, "SURVEY STATUS", stats.ByStatus)
	renderBuckets(&out, "SENTIMENT", stats.BySentiment)

	if stats.Unlinked > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		out.WriteString(fmt.Sprintf("  ⚠️  %d contacts with no activities or surveys\n", stats.Unlinked))
	}
	return out.String()
}

func renderBuckets(out *strings.Builder, title string, rows []Bucket) {
	if len(rows) == 0 {
		return
	}
	out.WriteString(title + "\n")

	maxCount := 1
	for _, b := range rows {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}
	for _, b := range rows {
		barLength := (b.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		label := b.Label
		if label == "" {
			label = "(none)"
		}
		out.WriteString(fmt.Sprintf("  %-20s %s  %3d\n", label, bar, b.Count))
	}
	out.WriteString("\n")
}
