// ABOUTME: Tests for fuzzy contact filtering
// ABOUTME: Covers query matching, directory filtering and empty results
package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harperreed/cxboard/models"
)

func searchContact(id, dir, name, email string) models.Contact {
	fields := models.NewFields()
	fields.Set("name", models.String(name))
	fields.Set("email", models.String(email))
	return models.Contact{ID: id, Directory: dir, DirectoryFields: fields}
}

func TestFilterContacts(t *testing.T) {
	contacts := []models.Contact{
		searchContact("c1", "Enterprise", "Sarah Chen", "sarah@acme.com"),
		searchContact("c2", "Enterprise", "Marcus Webb", "marcus@globex.com"),
		searchContact("c3", "SMB", "Priya Raman", "priya@initech.com"),
		{ID: "c4", Directory: "SMB"},
	}

	ids := func(cs []models.Contact) []string {
		out := []string{}
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids(FilterContacts(contacts, "", "")))
	assert.Equal(t, []string{"c2"}, ids(FilterContacts(contacts, "mwebb", "")))
	assert.Equal(t, []string{"c3"}, ids(FilterContacts(contacts, "initech", "")))
	assert.Equal(t, []string{"c3", "c4"}, ids(FilterContacts(contacts, "", "smb")))
	assert.Equal(t, []string{"c3"}, ids(FilterContacts(contacts, "priya", "SMB")))
	assert.Equal(t, []string{"c4"}, ids(FilterContacts(contacts, "C4", "")))
	assert.Empty(t, FilterContacts(contacts, "zzz", ""))
}
