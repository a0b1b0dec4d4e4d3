// ABOUTME: Map-backed Store used for tests and ephemeral servers
// ABOUTME: Keeps insertion order and enforces the same parent checks as the SQL backends
package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/cxboard/models"
)

type MemoryStore struct {
	mu         sync.RWMutex
	contacts   map[string]*models.Contact
	activities map[string]*models.Activity
	surveys    map[string]*models.Survey
	notes      map[string]*models.Note
	seq        map[string]int
	next       int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts:   make(map[string]*models.Contact),
		activities: make(map[string]*models.Activity),
		surveys:    make(map[string]*models.Survey),
		notes:      make(map[string]*models.Note),
		seq:        make(map[string]int),
	}
}

// order records insertion order so ties on timestamps sort stably.
func (s *MemoryStore) order(key string) {
	if _, ok := s.seq[key]; !ok {
		s.next++
		s.seq[key] = s.next
	}
}

func (s *MemoryStore) GetContact(_ context.Context, id string) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[id]
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	out := *c
	out.DirectoryFields = c.DirectoryFields.Clone()
	return &out, nil
}

func (s *MemoryStore) ListContacts(_ context.Context) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		cp := *c
		cp.DirectoryFields = c.DirectoryFields.Clone()
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq["c:"+out[i].ID] > s.seq["c:"+out[j].ID]
	})
	return out, nil
}

func (s *MemoryStore) CreateContact(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[contact.ID]; ok {
		return fmt.Errorf("contact %s: %w", contact.ID, ErrAlreadyExists)
	}
	if contact.DirectoryFields == nil {
		contact.DirectoryFields = models.NewFields()
	}
	stamp(&contact.CreatedAt, &contact.UpdatedAt)
	cp := *contact
	cp.DirectoryFields = contact.DirectoryFields.Clone()
	s.contacts[contact.ID] = &cp
	s.order("c:" + contact.ID)
	return nil
}

func (s *MemoryStore) GetActivity(_ context.Context, id string) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	out := *a
	out.ActivityFields = a.ActivityFields.Clone()
	return &out, nil
}

func (s *MemoryStore) ListActivities(_ context.Context, contactID string) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Activity
	for _, a := range s.activities {
		if a.ContactID == contactID {
			cp := *a
			cp.ActivityFields = a.ActivityFields.Clone()
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq["a:"+out[i].ID] < s.seq["a:"+out[j].ID] })
	return out, nil
}

func (s *MemoryStore) CreateActivity(_ context.Context, activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[activity.ContactID]; !ok {
		return fmt.Errorf("contact %s: %w", activity.ContactID, ErrNotFound)
	}
	if _, ok := s.activities[activity.ID]; ok {
		return fmt.Errorf("activity %s: %w", activity.ID, ErrAlreadyExists)
	}
	stamp(&activity.CreatedAt, nil)
	cp := *activity
	cp.ActivityFields = activity.ActivityFields.Clone()
	s.activities[activity.ID] = &cp
	s.order("a:" + activity.ID)
	return nil
}

func (s *MemoryStore) ListSurveys(_ context.Context, contactID string) ([]models.Survey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Survey
	for _, sv := range s.surveys {
		if sv.ContactID == contactID {
			out = append(out, copySurvey(sv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq["s:"+out[i].ID] < s.seq["s:"+out[j].ID] })
	return out, nil
}

// UpsertSurvey replaces any survey with the same id.
func (s *MemoryStore) UpsertSurvey(_ context.Context, survey *models.Survey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[survey.ContactID]; !ok {
		return fmt.Errorf("contact %s: %w", survey.ContactID, ErrNotFound)
	}
	if survey.ActivityID != nil {
		if _, ok := s.activities[*survey.ActivityID]; !ok {
			return fmt.Errorf("activity %s: %w", *survey.ActivityID, ErrNotFound)
		}
	}
	stamp(&survey.CreatedAt, nil)
	cp := copySurvey(survey)
	s.surveys[survey.ID] = &cp
	s.order("s:" + survey.ID)
	return nil
}

func (s *MemoryStore) ListNotes(_ context.Context, contactID string) ([]models.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Note
	for _, n := range s.notes {
		if n.ContactID == contactID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq["n:"+out[i].ID] < s.seq["n:"+out[j].ID] })
	return out, nil
}

func (s *MemoryStore) CreateNote(_ context.Context, note *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[note.ContactID]; !ok {
		return fmt.Errorf("contact %s: %w", note.ContactID, ErrNotFound)
	}
	if _, ok := s.notes[note.ID]; ok {
		return fmt.Errorf("note %s: %w", note.ID, ErrAlreadyExists)
	}
	stamp(&note.CreatedAt, nil)
	cp := *note
	s.notes[note.ID] = &cp
	s.order("n:" + note.ID)
	return nil
}

func (s *MemoryStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts = make(map[string]*models.Contact)
	s.activities = make(map[string]*models.Activity)
	s.surveys = make(map[string]*models.Survey)
	s.notes = make(map[string]*models.Note)
	s.seq = make(map[string]int)
	return nil
}

func (s *MemoryStore) Counts(_ context.Context) (Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Contacts:   len(s.contacts),
		Activities: len(s.activities),
		Surveys:    len(s.surveys),
		Notes:      len(s.notes),
	}, nil
}

func (s *MemoryStore) Ready(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// copySurvey detaches the survey's payloads from the caller. Absent payloads
// stay nil.
func copySurvey(sv *models.Survey) models.Survey {
	cp := *sv
	for _, f := range []**models.Fields{&cp.FeedbackRecipient, &cp.MetricScores, &cp.DriverScores} {
		if *f != nil {
			*f = (*f).Clone()
		}
	}
	cp.OpenEndedThemes = sv.OpenEndedThemes.Clone()
	cp.OpenEndedEmotions = sv.OpenEndedEmotions.Clone()
	return cp
}
