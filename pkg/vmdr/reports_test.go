// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vmdr

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// fakeTransport records requests and answers each with the same body.
type fakeTransport struct {
	body  string
	err   error
	calls []qualys.Request
}

func (f *fakeTransport) Call(_ context.Context, _ *qualys.BasicAuth, req qualys.Request) ([]byte, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func newFakeAuth(t *testing.T, body string) (*qualys.BasicAuth, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{body: body}
	auth, err := qualys.NewBasicAuth("acme_ab12", "s3cret", qualys.WithTransport(ft))
	require.NoError(t, err)
	return auth, ft
}

const noReports = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE SIMPLE_RETURN SYSTEM "https://qualysapi.qualys.com/api/2.0/simple_return.dtd">
<SIMPLE_RETURN>
  <RESPONSE>
    <DATETIME>2024-05-01T12:00:00Z</DATETIME>
    <TEXT>No reports matched your search criteria.</TEXT>
  </RESPONSE>
</SIMPLE_RETURN>`

const twoReports = `<?xml version="1.0" encoding="UTF-8" ?>
<REPORT_LIST_OUTPUT>
  <RESPONSE>
    <DATETIME>2024-05-01T12:00:00Z</DATETIME>
    <REPORT_LIST>
      <REPORT>
        <ID>8291</ID>
        <TITLE><![CDATA[Weekly Scan Summary]]></TITLE>
        <TYPE>Scan</TYPE>
        <USER_LOGIN>acme_ab12</USER_LOGIN>
        <LAUNCH_DATETIME>2024-05-01T07:00:12Z</LAUNCH_DATETIME>
        <OUTPUT_FORMAT>PDF</OUTPUT_FORMAT>
        <SIZE>1.2 MB</SIZE>
        <STATUS><STATE>Finished</STATE></STATUS>
        <EXPIRATION_DATETIME>2024-05-08T07:00:12Z</EXPIRATION_DATETIME>
      </REPORT>
      <REPORT>
        <ID>8292</ID>
        <TYPE>Map</TYPE>
        <STATUS><STATE>Running</STATE><PERCENT>40</PERCENT></STATUS>
      </REPORT>
    </REPORT_LIST>
  </RESPONSE>
</REPORT_LIST_OUTPUT>`

func TestManageReportsUnsupportedAction(t *testing.T) {
	auth, ft := newFakeAuth(t, "")

	_, err := ManageReports(context.Background(), auth, "archive", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, qualys.ErrNotImplemented))

	var uerr *qualys.UnsupportedActionError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, "archive", uerr.Action)
	assert.Empty(t, ft.calls, "no request for an unsupported action")
}

func TestManageReportsCallShape(t *testing.T) {
	tests := []struct {
		action   ReportAction
		endpoint string
	}{
		{ActionList, "get_report_list"},
		{ActionLaunch, "launch_report"},
		{ActionCancel, "cancel_report"},
		{ActionFetch, "fetch_report"},
		{ActionDelete, "delete_report"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			auth, ft := newFakeAuth(t, "<OK/>")
			params := url.Values{"action": {"bogus"}, "echo_request": {"1"}, "id": {"7"}}

			_, err := ManageReports(context.Background(), auth, tt.action, params)
			require.NoError(t, err)
			require.Len(t, ft.calls, 1)

			req := ft.calls[0]
			assert.Equal(t, "vmdr", req.Module)
			assert.Equal(t, tt.endpoint, req.Endpoint)
			assert.Equal(t, string(tt.action), req.Params.Get("action"))
			assert.Equal(t, "0", req.Params.Get("echo_request"))
			assert.Equal(t, "7", req.Params.Get("id"))
			assert.Equal(t, RequestedWith, req.Headers.Get("X-Requested-With"))

			assert.Equal(t, "bogus", params.Get("action"), "caller params untouched")
		})
	}
}

func TestGetReportListSoftFailure(t *testing.T) {
	auth, ft := newFakeAuth(t, noReports)

	_, err := GetReportList(context.Background(), auth, ReportListOptions{})
	var apiErr *qualys.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "No reports matched your search criteria.", apiErr.Message)
	assert.Equal(t, "No reports matched your search criteria.", err.Error())
	assert.Equal(t, "list", ft.calls[0].Params.Get("action"))
}

func TestGetReportList(t *testing.T) {
	auth, ft := newFakeAuth(t, twoReports)
	expires := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	reports, err := GetReportList(context.Background(), auth, ReportListOptions{
		State:         types.StateFinished,
		UserLogin:     "acme_ab12",
		ExpiresBefore: &expires,
	})
	require.NoError(t, err)
	require.Equal(t, 2, reports.Len())

	assert.Equal(t, 8291, reports[0].ID)
	assert.Equal(t, "Weekly Scan Summary", *reports[0].Title)
	assert.Equal(t, types.StateFinished, reports[0].Status.State)
	assert.Equal(t, types.ReportMap, reports[1].Type)
	assert.InDelta(t, 40.0, *reports[1].Status.Percent, 1e-9)

	params := ft.calls[0].Params
	assert.Equal(t, "Finished", params.Get("state"))
	assert.Equal(t, "acme_ab12", params.Get("user_login"))
	assert.Equal(t, "2024-06-01T00:00:00Z", params.Get("expires_before_datetime"))
	assert.False(t, params.Has("id"))
	assert.False(t, params.Has("client_id"))
}

func TestGetReportListSingleAndEmpty(t *testing.T) {
	auth, _ := newFakeAuth(t, `<REPORT_LIST_OUTPUT><RESPONSE><REPORT_LIST><REPORT><ID>1</ID><TYPE>Patch</TYPE></REPORT></REPORT_LIST></RESPONSE></REPORT_LIST_OUTPUT>`)
	reports, err := GetReportList(context.Background(), auth, ReportListOptions{ID: 1})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, types.ReportPatch, reports[0].Type)

	auth, _ = newFakeAuth(t, `<REPORT_LIST_OUTPUT><RESPONSE><DATETIME>2024-05-01T12:00:00Z</DATETIME></RESPONSE></REPORT_LIST_OUTPUT>`)
	reports, err = GetReportList(context.Background(), auth, ReportListOptions{})
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestGetReportListBadRecordFailsCall(t *testing.T) {
	auth, _ := newFakeAuth(t, `<REPORT_LIST_OUTPUT><RESPONSE><REPORT_LIST>
<REPORT><ID>1</ID><TYPE>Scan</TYPE></REPORT>
<REPORT><TYPE>Scan</TYPE></REPORT>
</REPORT_LIST></RESPONSE></REPORT_LIST_OUTPUT>`)

	_, err := GetReportList(context.Background(), auth, ReportListOptions{})
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"ID"}, verr.Missing)
	assert.Contains(t, err.Error(), "REPORT 1")
}

func TestGetReportListUnexpectedRoot(t *testing.T) {
	auth, _ := newFakeAuth(t, `<GENERIC_RETURN><RESPONSE/></GENERIC_RETURN>`)
	_, err := GetReportList(context.Background(), auth, ReportListOptions{})
	assert.ErrorIs(t, err, qualys.ErrUnexpectedResponse)
}

func TestGetReportListTransportError(t *testing.T) {
	auth, ft := newFakeAuth(t, "")
	ft.err = errors.New("connection refused")
	_, err := GetReportList(context.Background(), auth, ReportListOptions{})
	assert.EqualError(t, err, "connection refused")
}

func TestCancelAndDeleteReport(t *testing.T) {
	auth, ft := newFakeAuth(t, `<SIMPLE_RETURN><RESPONSE><DATETIME>2024-05-01T12:00:00Z</DATETIME><TEXT>Report deleted</TEXT>
<ITEM_LIST><ITEM><KEY>ID</KEY><VALUE>8291</VALUE></ITEM></ITEM_LIST></RESPONSE></SIMPLE_RETURN>`)

	text, err := DeleteReport(context.Background(), auth, 8291)
	require.NoError(t, err)
	assert.Equal(t, "Report deleted", text)
	assert.Equal(t, "delete_report", ft.calls[0].Endpoint)
	assert.Equal(t, "8291", ft.calls[0].Params.Get("id"))

	auth, ft = newFakeAuth(t, `<SIMPLE_RETURN><RESPONSE><CODE>7001</CODE><TEXT>Report 8291 is not running</TEXT></RESPONSE></SIMPLE_RETURN>`)
	_, err = CancelReport(context.Background(), auth, 8291)
	var apiErr *qualys.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 7001, apiErr.Code)
	assert.Equal(t, "Report 8291 is not running", err.Error())
	assert.Equal(t, "cancel", ft.calls[0].Params.Get("action"))
}

func TestFetchReport(t *testing.T) {
	csv := "\"IP\",\"QID\"\n\"10.0.0.5\",\"38170\"\n"
	auth, ft := newFakeAuth(t, csv)

	body, err := FetchReport(context.Background(), auth, 8291)
	require.NoError(t, err)
	assert.Equal(t, csv, string(body))
	assert.Equal(t, "fetch_report", ft.calls[0].Endpoint)

	xmlReport := `<?xml version="1.0"?><ASSET_DATA_REPORT><HEADER/></ASSET_DATA_REPORT>`
	auth, _ = newFakeAuth(t, xmlReport)
	body, err = FetchReport(context.Background(), auth, 8291)
	require.NoError(t, err)
	assert.Equal(t, xmlReport, string(body))

	auth, _ = newFakeAuth(t, `<SIMPLE_RETURN><RESPONSE><CODE>7003</CODE><TEXT>Report is still running</TEXT></RESPONSE></SIMPLE_RETURN>`)
	_, err = FetchReport(context.Background(), auth, 8291)
	var apiErr *qualys.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Report is still running", apiErr.Message)
}
