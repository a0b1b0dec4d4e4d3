// ABOUTME: Contact browsing, notes, bulk delete and linkage graph endpoints
// ABOUTME: Builds the enriched contact view with optional time filtering
package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-graphviz"

	"github.com/harperreed/cxboard/db"
	"github.com/harperreed/cxboard/insights"
	"github.com/harperreed/cxboard/models"
	"github.com/harperreed/cxboard/timefilter"
)

func (s *Server) internalError(c *gin.Context, err error, msg string) {
	logger(c, s.log).WithError(err).Error(msg)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}

// ListContacts returns contacts newest first. q fuzzy-matches id, directory,
// name, email and company; directory filters by exact directory.
func (s *Server) ListContacts(c *gin.Context) {
	contacts, err := s.store.ListContacts(c.Request.Context())
	if err != nil {
		s.internalError(c, err, "failed to list contacts")
		return
	}
	c.JSON(http.StatusOK, db.FilterContacts(contacts, c.Query("q"), c.Query("directory")))
}

func (s *Server) GetContact(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	filter, err := timefilter.Parse(c.Query("filter"), c.Query("range"), c.Query("start"), c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid time filter", "error": err.Error()})
		return
	}

	view, err := insights.Load(ctx, s.store, id, filter.Window(s.now()))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		}
		s.internalError(c, err, "failed to fetch contact")
		return
	}
	c.JSON(http.StatusOK, view)
}

type createNoteRequest struct {
	Content        string `json:"content"`
	AuthorName     string `json:"authorName"`
	AuthorInitials string `json:"authorInitials"`
}

func (s *Server) CreateNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request", "error": err.Error()})
		return
	}

	note := &models.Note{
		ID:             "note_" + s.newID(),
		ContactID:      c.Param("id"),
		Content:        strings.TrimSpace(req.Content),
		AuthorName:     strings.TrimSpace(req.AuthorName),
		AuthorInitials: strings.TrimSpace(req.AuthorInitials),
		CreatedAt:      s.now().UTC(),
	}
	if err := models.Validate("note", note); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid note", "error": err.Error()})
		return
	}

	if err := s.store.CreateNote(c.Request.Context(), note); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		}
		s.internalError(c, err, "failed to create note")
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (s *Server) DeleteAll(c *gin.Context) {
	ctx := c.Request.Context()
	before, err := s.store.Counts(ctx)
	if err != nil {
		s.internalError(c, err, "failed to count records")
		return
	}
	if err := s.store.DeleteAll(ctx); err != nil {
		s.internalError(c, err, "failed to delete contacts")
		return
	}
	logger(c, s.log).WithField("contacts", before.Contacts).Warn("all contacts deleted")
	c.JSON(http.StatusOK, gin.H{"message": "All contacts deleted", "deleted": before})
}

// ContactGraph renders the contact's linkage as DOT, or SVG with ?format=svg.
func (s *Server) ContactGraph(c *gin.Context) {
	format, contentType := graphviz.XDOT, "text/vnd.graphviz; charset=utf-8"
	if c.Query("format") == "svg" {
		format, contentType = graphviz.SVG, "image/svg+xml"
	}

	out, err := s.generator.GenerateContactGraph(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Contact not found"})
			return
		}
		s.internalError(c, err, "failed to render contact graph")
		return
	}
	c.Data(http.StatusOK, contentType, out)
}
