// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportFromMap(t *testing.T) {
	r, err := ReportFromMap(map[string]any{
		"ID":                  "8291",
		"TITLE":               "Weekly Scan Summary",
		"TYPE":                "Scan",
		"USER_LOGIN":          "acme_ab12",
		"LAUNCH_DATETIME":     "2024-05-01T07:00:12Z",
		"OUTPUT_FORMAT":       "PDF",
		"SIZE":                "1.2 MB",
		"STATUS":              map[string]any{"STATE": "Running", "MESSAGE": "0/1 hosts", "PERCENT": "37"},
		"EXPIRATION_DATETIME": "2024-05-08T07:00:12Z",
	})
	require.NoError(t, err)

	assert.Equal(t, 8291, r.ID)
	assert.Equal(t, ReportScan, r.Type)
	assert.Equal(t, "Weekly Scan Summary", *r.Title)
	require.NotNil(t, r.Status)
	assert.Equal(t, StateRunning, r.Status.State)
	require.NotNil(t, r.Status.Percent)
	assert.InDelta(t, 37.0, *r.Status.Percent, 1e-9)
	assert.Equal(t, time.Date(2024, 5, 8, 7, 0, 12, 0, time.UTC), r.ExpirationDatetime.UTC())
	assert.Nil(t, r.Client)
}

func TestReportFromMapErrors(t *testing.T) {
	_, err := ReportFromMap(map[string]any{"TITLE": "x"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"ID", "TYPE"}, verr.Missing)

	_, err = ReportFromMap(map[string]any{"ID": "1", "TYPE": "Scan", "STATUS": map[string]any{"MESSAGE": "x"}})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "STATUS", verr.Field)

	var inner *ValidationError
	require.True(t, errors.As(verr.Err, &inner))
	assert.Equal(t, "ReportStatus", inner.Record)
	assert.Equal(t, []string{"STATE"}, inner.Missing)
}

func TestReportRoundTrip(t *testing.T) {
	title, login, format, size, name := "Patch Report", "acme_ab12", "CSV", "20 KB", "Acme Corp"
	launched := time.Date(2024, 3, 3, 3, 3, 3, 0, time.UTC)
	pct := 100.0
	r := Report{
		ID:             1,
		Title:          &title,
		Type:           ReportPatch,
		UserLogin:      &login,
		LaunchDatetime: &launched,
		OutputFormat:   &format,
		Size:           &size,
		Status:         &ReportStatus{State: StateFinished, Percent: &pct},
		Client:         &ReportClient{ID: 42, Name: &name},
	}

	got, err := ReportFromMap(r.ToMap())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestReportTemplateFromMap(t *testing.T) {
	tmpl, err := ReportTemplateFromMap(map[string]any{
		"ID":            "1528888",
		"TYPE":          "Auto",
		"TEMPLATE_TYPE": "Scan",
		"TITLE":         "Technical Report",
		"USER":          map[string]any{"LOGIN": "acme_ab12", "FIRSTNAME": "Ada", "LASTNAME": "Lovelace"},
		"LAST_UPDATE":   "2023-09-12T15:04:05Z",
		"GLOBAL":        "1",
		"DEFAULT":       "0",
	})
	require.NoError(t, err)

	assert.Equal(t, 1528888, tmpl.ID)
	assert.Equal(t, "Auto", tmpl.Type)
	assert.Equal(t, ReportScan, tmpl.TemplateType)
	require.NotNil(t, tmpl.User)
	assert.Equal(t, "Lovelace", *tmpl.User.LastName)
	assert.True(t, *tmpl.Global)
	assert.False(t, *tmpl.Default)

	got, err := ReportTemplateFromMap(tmpl.ToMap())
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)
}

func TestReportTemplateMissing(t *testing.T) {
	_, err := ReportTemplateFromMap(map[string]any{"ID": "1"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"TEMPLATE_TYPE", "TYPE"}, verr.Missing)
}

func TestReportTypeKnown(t *testing.T) {
	for _, rt := range ReportTypes {
		assert.True(t, rt.Known(), rt)
	}
	assert.False(t, ReportType("Asset Search").Known())
	assert.True(t, StateCanceled.Known())
	assert.False(t, ReportState("Queued").Known())
}
