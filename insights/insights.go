// ABOUTME: Display aggregates for the contact view built from stored survey labels
// ABOUTME: Communication rates, directory tags and a summary of sentiment, themes and emotions
package insights

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/cxboard/models"
)

// Enrich assembles the contact view. Nothing here analyses text: every
// aggregate is a count or union over labels that arrived with the data.
func Enrich(c models.Contact, activities []models.Activity, surveys []models.Survey, notes []models.Note) models.ContactWithData {
	if activities == nil {
		activities = []models.Activity{}
	}
	if surveys == nil {
		surveys = []models.Survey{}
	}
	if notes == nil {
		notes = []models.Note{}
	}
	summary := Summarize(surveys)
	return models.ContactWithData{
		Contact:              c,
		Activities:           activities,
		Surveys:              surveys,
		Notes:                notes,
		CommunicationMetrics: Communication(activities, surveys, notes),
		Tags:                 Tags(c, summary),
		NLPInsights:          summary,
	}
}

// Communication computes read and response rates as fractions in [0,1].
func Communication(activities []models.Activity, surveys []models.Survey, notes []models.Note) models.CommunicationMetrics {
	var email, emailRead, completed int
	for _, s := range surveys {
		if strings.EqualFold(s.Channel, "email") {
			email++
			if s.Status == models.StatusRead || s.Status == models.StatusCompleted {
				emailRead++
			}
		}
		if s.Status == models.StatusCompleted {
			completed++
		}
	}

	var last time.Time
	seen := func(t time.Time) {
		if t.After(last) {
			last = t
		}
	}
	for _, a := range activities {
		if a.ActivityUploadDate != nil {
			seen(*a.ActivityUploadDate)
		} else {
			seen(a.CreatedAt)
		}
	}
	for _, s := range surveys {
		seen(s.SentAt)
		if s.ParticipationDate != nil {
			seen(*s.ParticipationDate)
		}
	}
	for _, n := range notes {
		seen(n.CreatedAt)
	}

	m := models.CommunicationMetrics{
		EmailReadRate: ratio(emailRead, email),
		ResponseRate:  ratio(completed, len(surveys)),
	}
	if !last.IsZero() {
		m.LastContact = last.UTC().Format("2006-01-02")
	}
	return m
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(d)*100) / 100
}

// Tags derives badges from the directory, the segment attribute and the
// prevailing sentiment label.
func Tags(c models.Contact, summary models.NLPInsights) []models.Tag {
	tags := []models.Tag{}
	if c.Directory != "" {
		tags = append(tags, models.Tag{Type: models.TagTypeSystem, Label: c.Directory, Color: "blue"})
	}
	if seg := strings.TrimSpace(c.DirectoryFields.Text("segment")); seg != "" && !strings.EqualFold(seg, c.Directory) {
		tags = append(tags, models.Tag{Type: models.TagTypeSystem, Label: seg, Color: "purple"})
	}
	switch summary.OverallSentiment {
	case models.SentimentPositive:
		tags = append(tags, models.Tag{Type: models.TagTypeAI, Label: "Positive Sentiment", Color: "green"})
	case models.SentimentNegative:
		tags = append(tags, models.Tag{Type: models.TagTypeAI, Label: "At Risk", Color: "orange"})
	}
	return tags
}

// Summarize picks the most frequent sentiment label, with its share of the
// labeled surveys as confidence. Ties resolve to neutral.
func Summarize(surveys []models.Survey) models.NLPInsights {
	out := models.NLPInsights{
		Themes:   []string{},
		Emotions: []string{},
		Analysis: []models.InsightAnalysis{},
	}
	counts := map[string]int{}
	labeled := 0
	themes := newLabelSet()
	emotions := newLabelSet()

	for _, s := range surveys {
		sentiment := ""
		if s.OpenEndedSentiment != nil {
			sentiment = *s.OpenEndedSentiment
			counts[sentiment]++
			labeled++
		}
		surveyThemes := labels(s.OpenEndedThemes, "theme")
		surveyEmotions := labels(s.OpenEndedEmotions, "emotion")
		themes.add(surveyThemes...)
		emotions.add(surveyEmotions...)

		if sentiment == "" && len(surveyThemes) == 0 && len(surveyEmotions) == 0 {
			continue
		}
		theme := s.SurveyTitle
		if len(surveyThemes) > 0 {
			theme = surveyThemes[0]
		}
		if surveyEmotions == nil {
			surveyEmotions = []string{}
		}
		out.Analysis = append(out.Analysis, models.InsightAnalysis{
			Theme:     theme,
			Sentiment: sentiment,
			Quote:     s.SurveyTitle,
			Emotions:  surveyEmotions,
		})
	}

	out.Themes = themes.list
	out.Emotions = emotions.list
	if labeled == 0 {
		return out
	}

	type tally struct {
		label string
		n     int
	}
	var tallies []tally
	for label, n := range counts {
		tallies = append(tallies, tally{label, n})
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].n != tallies[j].n {
			return tallies[i].n > tallies[j].n
		}
		return tallies[i].label < tallies[j].label
	})
	top := tallies[0]
	if len(tallies) > 1 && tallies[1].n == top.n {
		top = tally{models.SentimentNeutral, counts[models.SentimentNeutral]}
	}
	out.OverallSentiment = top.label
	out.Confidence = ratio(top.n, labeled)
	return out
}

// labels flattens a themes or emotions value. List items may be plain labels
// or objects naming the label under key or "name".
func labels(v models.Value, key string) []string {
	if v.Kind() != models.KindArray {
		return v.Labels()
	}
	var out []string
	for _, item := range v.Items() {
		if item.Kind() == models.KindObject {
			fields := item.Fields()
			label := strings.TrimSpace(fields.Text(key))
			if label == "" {
				label = strings.TrimSpace(fields.Text("name"))
			}
			if label != "" {
				out = append(out, label)
			}
			continue
		}
		out = append(out, item.Labels()...)
	}
	return out
}

// labelSet keeps the first spelling of each label, compared case-insensitively.
type labelSet struct {
	seen map[string]bool
	list []string
}

func newLabelSet() *labelSet {
	return &labelSet{seen: map[string]bool{}, list: []string{}}
}

func (s *labelSet) add(labels ...string) {
	for _, l := range labels {
		k := strings.ToLower(l)
		if s.seen[k] {
			continue
		}
		s.seen[k] = true
		s.list = append(s.list, l)
	}
}
