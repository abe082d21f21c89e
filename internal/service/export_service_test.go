package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
	"github.com/noah-isme/autohub-api/pkg/export"
)

type certificateCapture struct {
	doc export.Certificate
}

func (c *certificateCapture) Render(doc export.Certificate) ([]byte, error) {
	c.doc = doc
	return []byte("%PDF-stub"), nil
}

func TestActivityCSV(t *testing.T) {
	store := newMemStore()
	ledger := ledgerMem{store}
	ctx := context.Background()
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, ledger.Append(ctx, &models.ActivityLog{UserID: "u1", Username: "alice", Action: models.ActivityLogin, Details: "signed in", CreatedAt: at}))
	require.NoError(t, ledger.Append(ctx, &models.ActivityLog{UserID: "u1", Username: "alice", Action: models.ActivityAddCar, Details: "added, with comma", CreatedAt: at.Add(time.Minute)}))

	svc := NewExportService(ledger, store, export.NewCSVExporter(), &certificateCapture{}, nil)
	out, filename, err := svc.ActivityCSV(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "activity-logs-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,user_id,username,action,details", lines[0])
	assert.Equal(t, `2024-02-03T04:06:06Z,u1,alice,ADD_CAR,"added, with comma"`, lines[1])
	assert.Equal(t, "2024-02-03T04:05:06Z,u1,alice,LOGIN,signed in", lines[2])
}

func TestCertificateUsesPublicView(t *testing.T) {
	store := newMemStore()
	store.put(models.InspectionRecord{
		ID:            "r1",
		Brand:         "Honda",
		ChassisNumber: "ABC123",
		Mileage:       1500,
		InspectorID:   "insp-secret",
		InspectorName: "alice",
		Status:        models.RecordStatusPermissionGranted,
	})
	capture := &certificateCapture{}
	svc := NewExportService(ledgerMem{store}, store, export.NewCSVExporter(), capture, nil)

	out, filename, err := svc.Certificate(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, "inspection-ABC123.pdf", filename)

	var rendered strings.Builder
	for _, f := range capture.doc.Fields {
		rendered.WriteString(f.Label + "=" + f.Value + ";")
	}
	assert.Contains(t, rendered.String(), "Mileage=1500 km")
	assert.Contains(t, rendered.String(), "Inspector=alice")
	assert.NotContains(t, rendered.String(), "insp-secret")
	assert.NotContains(t, rendered.String(), string(models.RecordStatusPermissionGranted))

	_, _, err = svc.Certificate(context.Background(), "missing")
	assert.True(t, errors.Is(err, appErrors.ErrRecordNotFound))
}
