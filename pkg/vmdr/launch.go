// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vmdr

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// outputFormats lists the formats each report type can be rendered in.
var outputFormats = map[types.ReportType][]string{
	types.ReportMap:         {"pdf", "html", "mht", "xml", "csv"},
	types.ReportScan:        {"pdf", "html", "mht", "xml", "csv", "docx"},
	types.ReportRemediation: {"pdf", "html", "mht", "csv"},
	types.ReportCompliance:  {"pdf", "html", "mht"},
	types.ReportPatch:       {"pdf", "online", "xml", "csv"},
	types.ReportPolicy:      {"pdf", "html", "mht", "xml", "csv"},
}

// LaunchReportOptions are the parameters of a report launch. Empty fields
// are not sent.
type LaunchReportOptions struct {
	// TemplateID selects the report template. Required.
	TemplateID int

	// Title names the report. PCI compliance reports get a generated title.
	Title string

	// OutputFormat is one of the formats valid for ReportType.
	OutputFormat string

	// PDFPassword encrypts PDF output. Required with either recipient option.
	PDFPassword string

	// RecipientGroup and RecipientGroupID share the PDF with user groups
	// (comma-separated). Only one may be set.
	RecipientGroup   string
	RecipientGroupID string

	ReportType types.ReportType

	// Domain and ReportRefs are required for Map reports. IPRestriction is
	// required when Domain is "None".
	Domain        string
	IPRestriction string
	ReportRefs    string

	AssetGroupIDs string
	IPsNetworkID  string
	IPs           string

	// AssigneeType is "User" or "All".
	AssigneeType string

	PolicyID string

	// HostID and InstanceString narrow a policy report to one host instance
	// and must be given together.
	HostID         string
	InstanceString string

	// Extra is sent verbatim for parameters without a typed field. Typed
	// fields win over Extra.
	Extra url.Values
}

// LaunchValidationError lists every constraint a LaunchReportOptions breaks.
type LaunchValidationError struct {
	Violations []string
}

func (e *LaunchValidationError) Error() string {
	return "invalid launch options: " + strings.Join(e.Violations, "; ")
}

// Validate checks opts against the launch constraints and reports all
// violations at once.
func (o LaunchReportOptions) Validate() error {
	var v []string

	if o.TemplateID <= 0 {
		v = append(v, "template_id is required")
	}
	if o.RecipientGroup != "" && o.RecipientGroupID != "" {
		v = append(v, "recipient_group and recipient_group_id cannot be used together")
	}
	if (o.RecipientGroup != "" || o.RecipientGroupID != "") && o.PDFPassword == "" {
		v = append(v, "pdf_password is required when sharing with a recipient group")
	}
	if o.PDFPassword != "" {
		if msg := checkPDFPassword(o.PDFPassword); msg != "" {
			v = append(v, msg)
		}
	}
	if o.ReportType != "" && !o.ReportType.Known() {
		v = append(v, fmt.Sprintf("report_type %q is not one of %s", o.ReportType, reportTypeNames()))
	}
	if o.OutputFormat != "" {
		if msg := checkOutputFormat(o.ReportType, o.OutputFormat); msg != "" {
			v = append(v, msg)
		}
	}
	if o.ReportType == types.ReportMap {
		if o.Domain == "" {
			v = append(v, "domain is required for Map reports")
		}
		if o.ReportRefs == "" {
			v = append(v, "report_refs is required for Map reports")
		}
	}
	if o.Domain == "None" && o.IPRestriction == "" {
		v = append(v, `ip_restriction is required when domain is "None"`)
	}
	if (o.HostID == "") != (o.InstanceString == "") {
		v = append(v, "host_id and instance_string must be given together")
	}
	if o.AssigneeType != "" && o.AssigneeType != "User" && o.AssigneeType != "All" {
		v = append(v, fmt.Sprintf("assignee_type %q is not User or All", o.AssigneeType))
	}

	if len(v) > 0 {
		return &LaunchValidationError{Violations: v}
	}
	return nil
}

func checkPDFPassword(pw string) string {
	if n := len([]rune(pw)); n < 8 || n > 32 {
		return "pdf_password must be 8 to 32 characters"
	}
	var letter, digit bool
	for _, r := range pw {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	if !letter || !digit {
		return "pdf_password must contain letters and digits"
	}
	return ""
}

func checkOutputFormat(rt types.ReportType, format string) string {
	format = strings.ToLower(format)
	if formats, ok := outputFormats[rt]; ok {
		if !slices.Contains(formats, format) {
			return fmt.Sprintf("output_format %q is not valid for %s reports (want %s)", format, rt, strings.Join(formats, ", "))
		}
		return ""
	}
	for _, formats := range outputFormats {
		if slices.Contains(formats, format) {
			return ""
		}
	}
	return fmt.Sprintf("output_format %q is not a known report format", format)
}

func reportTypeNames() string {
	names := make([]string, len(types.ReportTypes))
	for i, rt := range types.ReportTypes {
		names[i] = string(rt)
	}
	return strings.Join(names, ", ")
}

// values assembles the request parameters. hide_header is always 1.
func (o LaunchReportOptions) values() url.Values {
	v := cloneValues(o.Extra)
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	if o.TemplateID > 0 {
		v.Set("template_id", strconv.Itoa(o.TemplateID))
	}
	set("report_title", o.Title)
	set("output_format", strings.ToLower(o.OutputFormat))
	set("pdf_password", o.PDFPassword)
	set("recipient_group", o.RecipientGroup)
	set("recipient_group_id", o.RecipientGroupID)
	set("report_type", string(o.ReportType))
	set("domain", o.Domain)
	set("ip_restriction", o.IPRestriction)
	set("report_refs", o.ReportRefs)
	set("asset_group_ids", o.AssetGroupIDs)
	set("ips_network_id", o.IPsNetworkID)
	set("ips", o.IPs)
	set("assignee_type", o.AssigneeType)
	set("policy_id", o.PolicyID)
	set("host_id", o.HostID)
	set("instance_string", o.InstanceString)
	v.Set("hide_header", "1")
	return v
}

// LaunchReport validates opts, launches the report and returns its ID.
// Invalid options fail with *LaunchValidationError before any request.
func LaunchReport(ctx context.Context, auth *qualys.BasicAuth, opts LaunchReportOptions) (int, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	raw, err := ManageReports(ctx, auth, ActionLaunch, opts.values())
	if err != nil {
		return 0, err
	}
	env, err := parseEnvelope(raw, qualys.SimpleReturn)
	if err != nil {
		return 0, err
	}

	items, err := env.Items(qualys.SimpleReturn, "RESPONSE", "ITEM_LIST", "ITEM")
	if err != nil {
		return 0, fmt.Errorf("reading launch response: %w", err)
	}
	for _, item := range items {
		if key, _ := item["KEY"].(string); strings.TrimSpace(key) != "ID" {
			continue
		}
		value, _ := item["VALUE"].(string)
		id, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("parsing launched report ID %q: %w", value, err)
		}
		return id, nil
	}
	return 0, env.SimpleReturnError()
}
