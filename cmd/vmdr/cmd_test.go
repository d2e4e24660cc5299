// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/url"
	"testing"
	"unicode/utf8"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"display_trending=1", "hide_header=0", "ips=10.0.0.1=x"})
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"display_trending": {"1"},
		"hide_header":      {"0"},
		"ips":              {"10.0.0.1=x"},
	}, got)

	got, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseParams([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=1"})
	assert.Error(t, err)
}

func TestParseReportID(t *testing.T) {
	id, err := parseReportID(" 8291 ")
	require.NoError(t, err)
	assert.Equal(t, 8291, id)

	for _, bad := range []string{"", "abc", "0", "-4"} {
		_, err := parseReportID(bad)
		assert.Error(t, err, bad)
	}
}

func TestFilterDetections(t *testing.T) {
	hosts := types.List[types.Host]{
		{ID: 1, Detections: []types.Detection{
			{QID: 10, Severity: 5, Status: types.StatusActive},
			{QID: 11, Severity: 2, Status: types.StatusActive},
		}},
		{ID: 2, Detections: []types.Detection{
			{QID: 12, Severity: 1, Status: types.StatusFixed},
		}},
	}

	got, err := filterDetections(hosts, "SEVERITY >= 3")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
	require.Len(t, got[0].Detections, 1)
	assert.Equal(t, 10, got[0].Detections[0].QID)
	assert.Len(t, hosts[0].Detections, 2, "input hosts untouched")

	_, err = filterDetections(hosts, "SEVERITY >=")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	t.Cleanup(func() { viper.Set("output", "") })
	title := "Weekly"
	reports := types.List[types.Report]{{ID: 8291, Type: types.ReportScan, Title: &title}}
	table := func(w io.Writer) error { return formatReports(w, reports) }

	var buf bytes.Buffer
	viper.Set("output", "table")
	require.NoError(t, render(&buf, reports, table))
	assert.Contains(t, buf.String(), "8291")
	assert.Contains(t, buf.String(), "1 reports")

	buf.Reset()
	viper.Set("output", "json")
	require.NoError(t, render(&buf, reports, table))
	var decoded []types.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []types.Report(reports), decoded)

	buf.Reset()
	viper.Set("output", "yaml")
	require.NoError(t, render(&buf, reports, table))
	assert.Contains(t, buf.String(), "id: 8291")

	viper.Set("output", "xml")
	assert.Error(t, render(&buf, reports, table))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))

	got := truncate("Schwacüüüüüüüü", 10)
	assert.Equal(t, "Schwacü...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Größe", truncate("Größe", 5))
}
