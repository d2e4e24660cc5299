// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

const defaultQueryLimit = 500

// DetectionQuery filters archived detections. Zero values do not filter.
type DetectionQuery struct {
	// SnapshotID selects the snapshot; 0 means the latest hosts snapshot.
	SnapshotID int64

	MinSeverity int
	Status      types.DetectionStatus
	QID         int

	// Text matches a substring of the detection results.
	Text string

	// Limit caps the result count (default 500).
	Limit int
}

// HostDetection is an archived detection with the host it was found on.
type HostDetection struct {
	HostID    int             `json:"host_id" yaml:"host_id"`
	Detection types.Detection `json:"detection" yaml:"detection"`
}

// Detections queries the detections of one snapshot, highest severity first.
func (s *Store) Detections(ctx context.Context, q DetectionQuery) ([]HostDetection, error) {
	snapshotID := q.SnapshotID
	if snapshotID == 0 {
		snap, err := s.Latest(ctx, KindHosts)
		if err != nil {
			return nil, err
		}
		snapshotID = snap.ID
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	var qb strings.Builder
	args := []any{snapshotID}
	qb.WriteString(`SELECT host_id, record FROM detections WHERE snapshot_id = ?`)

	if q.MinSeverity > 0 {
		qb.WriteString(` AND severity >= ?`)
		args = append(args, q.MinSeverity)
	}
	if q.Status != "" {
		qb.WriteString(` AND status = ?`)
		args = append(args, string(q.Status))
	}
	if q.QID > 0 {
		qb.WriteString(` AND qid = ?`)
		args = append(args, q.QID)
	}
	if q.Text != "" {
		qb.WriteString(` AND results LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(q.Text)+"%")
	}

	qb.WriteString(` ORDER BY severity DESC, qid, host_id, position LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying detections: %w", err)
	}
	defer rows.Close()

	var out []HostDetection
	for rows.Next() {
		var hd HostDetection
		var raw string
		if err := rows.Scan(&hd.HostID, &raw); err != nil {
			return nil, fmt.Errorf("scanning detection: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &hd.Detection); err != nil {
			return nil, fmt.Errorf("decoding detection: %w", err)
		}
		out = append(out, hd)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
