// ABOUTME: Contact search shared by the HTTP API, CLI and MCP tools
// ABOUTME: Fuzzy matches a query against contact identity fields
package db

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/harperreed/cxboard/models"
)

// FilterContacts keeps contacts in directory (case-insensitive) whose id,
// directory, name, email or company fuzzy-matches query. Empty arguments do
// not filter. The input order is preserved.
func FilterContacts(contacts []models.Contact, query, directory string) []models.Contact {
	query = strings.TrimSpace(query)
	directory = strings.TrimSpace(directory)
	out := make([]models.Contact, 0, len(contacts))
	for _, contact := range contacts {
		if directory != "" && !strings.EqualFold(contact.Directory, directory) {
			continue
		}
		if query != "" && !matchContact(contact, query) {
			continue
		}
		out = append(out, contact)
	}
	return out
}

func matchContact(c models.Contact, query string) bool {
	candidates := []string{
		c.ID,
		c.Directory,
		c.DirectoryFields.Text("name"),
		c.DirectoryFields.Text("email"),
		c.DirectoryFields.Text("company"),
	}
	for _, candidate := range candidates {
		if candidate != "" && fuzzy.MatchNormalizedFold(query, candidate) {
			return true
		}
	}
	return false
}
