// ABOUTME: Upload endpoint that runs a CSV or JSON file through the importer
// ABOUTME: Enforces the size limit before parsing and maps import errors to HTTP statuses
package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/harperreed/cxboard/importer"
)

// multipartOverhead leaves room for part headers and boundaries on top of the
// file size limit.
const multipartOverhead = 64 << 10

func (s *Server) Import(c *gin.Context) {
	log := logger(c, s.log)
	limit := s.importer.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			tooLargeResponse(c, limit)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}
	if header.Size > limit {
		tooLargeResponse(c, limit)
		return
	}
	if _, err := importer.DetectFormat(header.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported file format. Please upload CSV or JSON files."})
		return
	}

	f, err := header.Open()
	if err != nil {
		log.WithError(err).Error("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		log.WithError(err).Error("failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	checkContentType(log, header.Filename, header.Header.Get("Content-Type"), data)

	report, err := s.importer.ImportBytes(c.Request.Context(), data, header.Filename)
	if err != nil {
		s.importError(c, err, limit)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) importError(c *gin.Context, err error, limit int64) {
	var ferr *importer.FormatError
	switch {
	case errors.Is(err, importer.ErrFileTooLarge):
		tooLargeResponse(c, limit)
	case errors.Is(err, importer.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported file format. Please upload CSV or JSON files."})
	case errors.As(err, &ferr):
		msg := "Invalid CSV format"
		if ferr.Format == importer.FormatJSON {
			msg = "Invalid JSON format"
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": msg, "error": ferr.Err.Error()})
	default:
		logger(c, s.log).WithError(err).Error("import failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Import failed", "error": err.Error()})
	}
}

func tooLargeResponse(c *gin.Context, limit int64) {
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{
		"message": fmt.Sprintf("File too large. Maximum size is %s.", formatLimit(limit)),
	})
}

// formatLimit prints whole megabytes, falling back to bytes below 1 MB.
func formatLimit(limit int64) string {
	const mb = 1 << 20
	if limit >= mb && limit%mb == 0 {
		return fmt.Sprintf("%d MB", limit/mb)
	}
	if limit >= mb {
		return fmt.Sprintf("%.1f MB", float64(limit)/mb)
	}
	return fmt.Sprintf("%d bytes", limit)
}

// checkContentType logs when the declared or sniffed type disagrees with the
// extension. The extension always decides the parser.
func checkContentType(log logrus.FieldLogger, name, declared string, data []byte) {
	detected := mimetype.Detect(data)
	var expected []string
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		expected = []string{"application/json"}
	case ".csv":
		expected = []string{"text/csv", "text/plain"}
	}
	for _, e := range expected {
		if detected.Is(e) {
			return
		}
	}
	log.WithFields(logrus.Fields{
		"file":     name,
		"declared": declared,
		"detected": detected.String(),
	}).Debug("upload content does not look like its extension")
}
