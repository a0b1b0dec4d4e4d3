// ABOUTME: Tests for import metrics
// ABOUTME: Reads counter deltas through the prometheus testutil helpers
package importer

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/cxboard/db"
)

func TestImportMetrics(t *testing.T) {
	okBefore := testutil.ToFloat64(importBatches.WithLabelValues(FormatJSON, "ok"))
	recordsBefore := testutil.ToFloat64(importRecords.WithLabelValues(FormatJSON))
	createdBefore := testutil.ToFloat64(importEntities.WithLabelValues("contact", "created"))
	skippedBefore := testutil.ToFloat64(importEntities.WithLabelValues("contact", "skipped"))
	rejectedBefore := testutil.ToFloat64(importBatches.WithLabelValues(FormatJSON, "format_error"))

	imp := newTestImporter(db.NewMemoryStore(), Options{})
	input := `[{"contact_id": "c1", "directory": "D"}, {"contact_id": "c2"}]`
	_, err := imp.ImportBytes(context.Background(), []byte(input), "m.json")
	require.NoError(t, err)

	_, err = imp.ImportBytes(context.Background(), []byte(`[`), "m.json")
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(importBatches.WithLabelValues(FormatJSON, "ok")))
	assert.Equal(t, recordsBefore+2, testutil.ToFloat64(importRecords.WithLabelValues(FormatJSON)))
	assert.Equal(t, createdBefore+1, testutil.ToFloat64(importEntities.WithLabelValues("contact", "created")))
	assert.Equal(t, skippedBefore+1, testutil.ToFloat64(importEntities.WithLabelValues("contact", "skipped")))
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(importBatches.WithLabelValues(FormatJSON, "format_error")))
}
