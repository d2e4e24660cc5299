// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "archive", "vmdr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func sampleReports() []types.Report {
	launched := time.Date(2024, 5, 1, 7, 0, 12, 0, time.UTC)
	return []types.Report{
		{
			ID:             8291,
			Title:          ptr("Weekly Scan Summary"),
			Type:           types.ReportScan,
			LaunchDatetime: &launched,
			Status:         &types.ReportStatus{State: types.StateFinished},
		},
		{ID: 8292, Type: types.ReportMap},
	}
}

func sampleHosts() []types.Host {
	found := time.Date(2024, 4, 30, 2, 0, 0, 0, time.UTC)
	return []types.Host{
		{
			ID: 4471,
			IP: ptr("10.0.0.5"),
			Detections: []types.Detection{
				{QID: 38170, Severity: 2, Type: types.DetectionConfirmed, Status: types.StatusActive,
					Results: ptr("Certificate expired"), Port: ptr(443), LastFoundDatetime: &found},
				{QID: 105943, Severity: 5, Type: types.DetectionConfirmed, Status: types.StatusNew,
					Results: ptr("OpenSSL 1.0.2k 100% vulnerable"), QDS: &types.QDS{Severity: "CRITICAL", Score: 95},
					QDSFactors: []types.QDSFactor{{Name: "epss", Value: "0.97"}}},
			},
		},
		{
			ID: 4472,
			Detections: []types.Detection{
				{QID: 105943, Severity: 5, Type: types.DetectionConfirmed, Status: types.StatusFixed},
				{QID: 6, Severity: 1, Type: types.DetectionInfo, Status: types.StatusActive},
			},
		},
	}
}

func TestSaveAndLoadReports(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap, err := store.SaveReports(ctx, sampleReports())
	require.NoError(t, err)
	assert.Equal(t, KindReports, snap.Kind)
	assert.Equal(t, 2, snap.Records)

	got, err := store.Reports(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleReports(), got)

	latest, err := store.Latest(ctx, KindReports)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, latest.ID)
	assert.WithinDuration(t, time.Now(), latest.TakenAt, time.Minute)
}

func TestSaveAndLoadHosts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap, err := store.SaveHosts(ctx, sampleHosts())
	require.NoError(t, err)

	got, err := store.Hosts(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, sampleHosts(), got)
}

func TestSnapshotsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.SaveReports(ctx, sampleReports())
	require.NoError(t, err)
	second, err := store.SaveHosts(ctx, sampleHosts())
	require.NoError(t, err)

	snaps, err := store.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, second.ID, snaps[0].ID)
	assert.Equal(t, first.ID, snaps[1].ID)
}

func TestLatestWithoutSnapshot(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Latest(context.Background(), KindHosts)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = store.Detections(context.Background(), DetectionQuery{})
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestDetectionsQuery(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.SaveHosts(ctx, sampleHosts()[:1])
	require.NoError(t, err)
	_, err = store.SaveHosts(ctx, sampleHosts())
	require.NoError(t, err)

	tests := []struct {
		name  string
		query DetectionQuery
		want  [][2]int // host ID, QID
	}{
		{"latest snapshot, severity order", DetectionQuery{}, [][2]int{{4471, 105943}, {4472, 105943}, {4471, 38170}, {4472, 6}}},
		{"min severity", DetectionQuery{MinSeverity: 5}, [][2]int{{4471, 105943}, {4472, 105943}}},
		{"status", DetectionQuery{Status: types.StatusActive}, [][2]int{{4471, 38170}, {4472, 6}}},
		{"qid", DetectionQuery{QID: 6}, [][2]int{{4472, 6}}},
		{"results text", DetectionQuery{Text: "expired"}, [][2]int{{4471, 38170}}},
		{"literal percent", DetectionQuery{Text: "100%"}, [][2]int{{4471, 105943}}},
		{"limit", DetectionQuery{Limit: 1}, [][2]int{{4471, 105943}}},
		{"earlier snapshot", DetectionQuery{SnapshotID: 1}, [][2]int{{4471, 105943}, {4471, 38170}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Detections(ctx, tt.query)
			require.NoError(t, err)
			var pairs [][2]int
			for _, hd := range got {
				pairs = append(pairs, [2]int{hd.HostID, hd.Detection.QID})
			}
			assert.Equal(t, tt.want, pairs)
		})
	}

	got, err := store.Detections(ctx, DetectionQuery{QID: 105943, Status: types.StatusNew})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Detection.QDS)
	assert.Equal(t, 95, got[0].Detection.QDS.Score)
}

func TestExport(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "out")

	_, err := store.ExportJSON(ctx, dir)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = store.SaveReports(ctx, sampleReports())
	require.NoError(t, err)
	_, err = store.SaveHosts(ctx, sampleHosts())
	require.NoError(t, err)

	jsonPath, err := store.ExportJSON(ctx, dir)
	require.NoError(t, err)
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var doc Export
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Snapshots, 2)
	assert.Equal(t, sampleReports(), doc.Reports)
	assert.Equal(t, sampleHosts(), doc.Hosts)

	yamlPath, err := store.ExportYAML(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "export.yaml"), yamlPath)
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "qid: 105943")
	assert.Contains(t, string(data), "title: Weekly Scan Summary")
}
