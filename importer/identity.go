// ABOUTME: Batch-scoped identity resolution for contacts, activities and surveys
// ABOUTME: Collapses repeated contact ids and synthesizes ids where the source has none
package importer

import (
	"github.com/oklog/ulid/v2"

	"github.com/harperreed/cxboard/models"
)

const (
	contactIDPrefix  = "contact_"
	activityIDPrefix = "activity_"
)

// newULID returns a time-ordered id with a random suffix.
func newULID() string {
	return ulid.Make().String()
}

// identityResolver holds the contact fragments seen so far in one batch.
// A resolver is created per import call and never shared.
type identityResolver struct {
	newID    func() string
	contacts map[string]*models.Contact
	surveys  map[string]int
	accepted []*models.Survey
}

func newIdentityResolver(newID func() string) *identityResolver {
	if newID == nil {
		newID = newULID
	}
	return &identityResolver{
		newID:    newID,
		contacts: make(map[string]*models.Contact),
		surveys:  make(map[string]int),
	}
}

// resolveContact returns the canonical contact for a fragment and whether
// this is its first occurrence. The first occurrence wins: later fragments
// carrying the same id never change the stored field values.
func (r *identityResolver) resolveContact(c *models.Contact) (*models.Contact, bool) {
	if c.ID == "" {
		c.ID = contactIDPrefix + r.newID()
	}
	if existing, ok := r.contacts[c.ID]; ok {
		return existing, false
	}
	r.contacts[c.ID] = c
	return c, true
}

// assignActivityID gives every activity a fresh id; activities are never
// deduplicated.
func (r *identityResolver) assignActivityID(a *models.Activity) {
	a.ID = activityIDPrefix + r.newID()
}

// acceptSurvey keys surveys by their declared id. A later survey with the
// same id replaces the earlier one in place and reports true.
func (r *identityResolver) acceptSurvey(s *models.Survey) bool {
	if idx, ok := r.surveys[s.ID]; ok {
		r.accepted[idx] = s
		return true
	}
	r.surveys[s.ID] = len(r.accepted)
	r.accepted = append(r.accepted, s)
	return false
}

func (r *identityResolver) acceptedSurveys() []*models.Survey {
	return r.accepted
}

// link attaches the record's contact to its children, and the record's
// activity to its survey when both came from the same source record.
func link(frag *Fragment) {
	contactID := frag.Contact.ID
	if frag.Activity != nil {
		frag.Activity.ContactID = contactID
	}
	if frag.Survey != nil {
		frag.Survey.ContactID = contactID
		frag.Survey.ActivityID = nil
		if frag.Activity != nil {
			id := frag.Activity.ID
			frag.Survey.ActivityID = &id
		}
	}
}
