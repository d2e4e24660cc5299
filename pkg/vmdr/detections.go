// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vmdr

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/qualys-vmdr/internal/coerce"
	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

const detectionRoot = "HOST_LIST_VM_DETECTION_OUTPUT"

// HostDetectionOptions filters the host list detection output. Zero values
// are not sent.
type HostDetectionOptions struct {
	// IDs and IPs restrict the hosts (comma-separated IDs, ranges allowed).
	IDs string
	IPs string

	QIDs       []int
	Severities []int
	Status     []types.DetectionStatus

	// ShowResults controls whether RESULTS is included. nil leaves the
	// vendor default.
	ShowResults *bool

	// ShowQDS and ShowQDSFactors request the detection score and its inputs.
	ShowQDS        bool
	ShowQDSFactors bool

	// TruncationLimit caps the hosts in one response.
	TruncationLimit *int

	// IDMin starts the page at this host ID. Callers take it from the
	// previous page's Warning.URL.
	IDMin int

	DetectionUpdatedSince *time.Time

	// Extra is sent verbatim for parameters without a typed field.
	Extra url.Values
}

func (o HostDetectionOptions) values() url.Values {
	v := cloneValues(o.Extra)
	if o.IDs != "" {
		v.Set("ids", o.IDs)
	}
	if o.IPs != "" {
		v.Set("ips", o.IPs)
	}
	if len(o.QIDs) > 0 {
		v.Set("qids", joinInts(o.QIDs))
	}
	if len(o.Severities) > 0 {
		v.Set("severities", joinInts(o.Severities))
	}
	if len(o.Status) > 0 {
		parts := make([]string, len(o.Status))
		for i, s := range o.Status {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	if o.ShowResults != nil {
		v.Set("show_results", flag(*o.ShowResults))
	}
	if o.ShowQDS {
		v.Set("show_qds", "1")
	}
	if o.ShowQDSFactors {
		v.Set("show_qds_factors", "1")
	}
	if o.TruncationLimit != nil {
		v.Set("truncation_limit", strconv.Itoa(*o.TruncationLimit))
	}
	if o.IDMin > 0 {
		v.Set("id_min", strconv.Itoa(o.IDMin))
	}
	if o.DetectionUpdatedSince != nil {
		v.Set("detection_updated_since", o.DetectionUpdatedSince.UTC().Format("2006-01-02T15:04:05Z"))
	}
	v.Set("action", "list")
	v.Set("echo_request", "0")
	return v
}

// ResponseWarning is the vendor's truncation notice. URL requests the next
// page; it is returned, never followed.
type ResponseWarning struct {
	Code int    `json:"code" yaml:"code"`
	Text string `json:"text" yaml:"text"`
	URL  string `json:"url" yaml:"url"`
}

// HostDetectionPage is one response of the host list detection API.
type HostDetectionPage struct {
	Hosts types.List[types.Host]

	// Warning is set when the vendor truncated the output.
	Warning *ResponseWarning
}

// GetHostListDetections returns hosts and their detections.
func GetHostListDetections(ctx context.Context, auth *qualys.BasicAuth, opts HostDetectionOptions) (HostDetectionPage, error) {
	raw, err := call(ctx, auth, "get_hld", opts.values())
	if err != nil {
		return HostDetectionPage{}, err
	}
	env, err := parseEnvelope(raw, detectionRoot)
	if err != nil {
		return HostDetectionPage{}, err
	}
	hosts, err := buildList(env, "HOST", types.HostFromMap, detectionRoot, "RESPONSE", "HOST_LIST", "HOST")
	if err != nil {
		return HostDetectionPage{}, err
	}

	page := HostDetectionPage{Hosts: hosts}
	if _, ok := env.Dig(detectionRoot, "RESPONSE", "WARNING"); ok {
		w := &ResponseWarning{}
		w.Text, _ = env.DigString(detectionRoot, "RESPONSE", "WARNING", "TEXT")
		w.URL, _ = env.DigString(detectionRoot, "RESPONSE", "WARNING", "URL")
		if code, ok := env.DigString(detectionRoot, "RESPONSE", "WARNING", "CODE"); ok {
			w.Code, _ = coerce.Int(code)
		}
		page.Warning = w
	}
	return page, nil
}

// NextIDMin extracts id_min from the warning URL, or 0 when absent.
func (w *ResponseWarning) NextIDMin() int {
	if w == nil || w.URL == "" {
		return 0
	}
	u, err := url.Parse(w.URL)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(u.Query().Get("id_min"))
	if err != nil {
		return 0
	}
	return n
}
