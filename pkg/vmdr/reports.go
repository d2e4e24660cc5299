// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vmdr

import (
	"bytes"
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// ReportAction is one verb of the report resource.
type ReportAction string

const (
	ActionList   ReportAction = "list"
	ActionLaunch ReportAction = "launch"
	ActionCancel ReportAction = "cancel"
	ActionFetch  ReportAction = "fetch"
	ActionDelete ReportAction = "delete"
)

var reportEndpoints = map[ReportAction]string{
	ActionList:   "get_report_list",
	ActionLaunch: "launch_report",
	ActionCancel: "cancel_report",
	ActionFetch:  "fetch_report",
	ActionDelete: "delete_report",
}

// ManageReports sends one report action with params and returns the raw
// response body. The action and echo_request=0 always override params. An
// action outside the vocabulary fails with *qualys.UnsupportedActionError
// before any request is made.
func ManageReports(ctx context.Context, auth *qualys.BasicAuth, action ReportAction, params url.Values) ([]byte, error) {
	endpoint, ok := reportEndpoints[action]
	if !ok {
		return nil, &qualys.UnsupportedActionError{Resource: "reports", Action: string(action)}
	}
	p := cloneValues(params)
	p.Set("action", string(action))
	p.Set("echo_request", "0")
	return call(ctx, auth, endpoint, p)
}

// ReportListOptions filters the report list. Zero values are not sent.
type ReportListOptions struct {
	ID        int
	State     types.ReportState
	UserLogin string

	// ExpiresBefore keeps reports expiring before this time.
	ExpiresBefore *time.Time

	// ClientID and ClientName apply to consultant subscriptions only.
	ClientID   int
	ClientName string
}

func (o ReportListOptions) values() url.Values {
	v := url.Values{}
	if o.ID > 0 {
		v.Set("id", strconv.Itoa(o.ID))
	}
	if o.State != "" {
		v.Set("state", string(o.State))
	}
	if o.UserLogin != "" {
		v.Set("user_login", o.UserLogin)
	}
	if o.ExpiresBefore != nil {
		v.Set("expires_before_datetime", o.ExpiresBefore.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if o.ClientID > 0 {
		v.Set("client_id", strconv.Itoa(o.ClientID))
	}
	if o.ClientName != "" {
		v.Set("client_name", o.ClientName)
	}
	return v
}

// GetReportList returns the reports in the subscription's Report Share,
// in response order. An empty REPORT_LIST_OUTPUT yields an empty list.
func GetReportList(ctx context.Context, auth *qualys.BasicAuth, opts ReportListOptions) (types.List[types.Report], error) {
	raw, err := ManageReports(ctx, auth, ActionList, opts.values())
	if err != nil {
		return nil, err
	}
	env, err := parseEnvelope(raw, "REPORT_LIST_OUTPUT")
	if err != nil {
		return nil, err
	}
	return buildList(env, "REPORT", types.ReportFromMap, "REPORT_LIST_OUTPUT", "RESPONSE", "REPORT_LIST", "REPORT")
}

// CancelReport cancels a running report and returns the vendor confirmation.
func CancelReport(ctx context.Context, auth *qualys.BasicAuth, id int) (string, error) {
	return confirm(ctx, auth, ActionCancel, id)
}

// DeleteReport removes a report from the Report Share and returns the vendor
// confirmation.
func DeleteReport(ctx context.Context, auth *qualys.BasicAuth, id int) (string, error) {
	return confirm(ctx, auth, ActionDelete, id)
}

// confirm runs an action whose answer is a SIMPLE_RETURN. The vendor marks
// failures with RESPONSE/CODE; a response without one is a confirmation.
func confirm(ctx context.Context, auth *qualys.BasicAuth, action ReportAction, id int) (string, error) {
	raw, err := ManageReports(ctx, auth, action, url.Values{"id": {strconv.Itoa(id)}})
	if err != nil {
		return "", err
	}
	env, err := parseEnvelope(raw, qualys.SimpleReturn)
	if err != nil {
		return "", err
	}
	if code, ok := env.DigString(qualys.SimpleReturn, "RESPONSE", "CODE"); ok && code != "" {
		return "", env.SimpleReturnError()
	}
	text, _ := env.DigString(qualys.SimpleReturn, "RESPONSE", "TEXT")
	return text, nil
}

// simpleReturnProbe bounds how far into a fetched report FetchReport looks
// for a SIMPLE_RETURN root.
const simpleReturnProbe = 1024

// FetchReport downloads a finished report and returns its content as
// rendered (PDF, CSV, XML, ...). A SIMPLE_RETURN answer is a soft failure.
func FetchReport(ctx context.Context, auth *qualys.BasicAuth, id int) ([]byte, error) {
	raw, err := ManageReports(ctx, auth, ActionFetch, url.Values{"id": {strconv.Itoa(id)}})
	if err != nil {
		return nil, err
	}
	head := raw
	if len(head) > simpleReturnProbe {
		head = head[:simpleReturnProbe]
	}
	if !bytes.Contains(head, []byte("<"+qualys.SimpleReturn)) {
		return raw, nil
	}
	env, err := qualys.ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	if apiErr := env.SimpleReturnError(); apiErr != nil {
		return nil, apiErr
	}
	return raw, nil
}
