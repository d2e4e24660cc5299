// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/qualys-vmdr/internal/coerce"
	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
	"github.com/pdiddy/qualys-vmdr/pkg/vmdr"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List, launch, cancel, fetch and delete reports",
	Long: `Reports manages the subscription's Report Share. Launching returns the
new report ID; fetch the report once its state is Finished.`,
}

// --- list subcommand ---

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reports in the Report Share",
	Long: `List returns the reports visible to the user. --filter applies a local
expression over the record fields, for example:

  vmdr reports list --filter 'TYPE == "Scan" and STATUS.STATE == "Finished"'`,
	RunE: runReportsList,
}

func runReportsList(cmd *cobra.Command, args []string) error {
	opts, err := reportListOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	auth, err := newAuth()
	if err != nil {
		return err
	}

	reports, err := vmdr.GetReportList(cmd.Context(), auth, opts)
	if err != nil {
		return err
	}
	if expr, _ := cmd.Flags().GetString("filter"); expr != "" {
		if reports, err = types.Where(reports, expr); err != nil {
			return err
		}
	}
	if err := maybeArchiveReports(cmd, reports); err != nil {
		return err
	}

	return render(os.Stdout, reports, func(w io.Writer) error {
		return formatReports(w, reports)
	})
}

func reportListOptsFromFlags(cmd *cobra.Command) (vmdr.ReportListOptions, error) {
	id, _ := cmd.Flags().GetInt("id")
	state, _ := cmd.Flags().GetString("state")
	userLogin, _ := cmd.Flags().GetString("user-login")
	expires, _ := cmd.Flags().GetString("expires-before")
	clientID, _ := cmd.Flags().GetInt("client-id")
	clientName, _ := cmd.Flags().GetString("client-name")

	opts := vmdr.ReportListOptions{
		ID:         id,
		State:      types.ReportState(state),
		UserLogin:  userLogin,
		ClientID:   clientID,
		ClientName: clientName,
	}
	if expires != "" {
		t, err := coerce.Time(expires)
		if err != nil {
			return opts, fmt.Errorf("--expires-before: %w", err)
		}
		opts.ExpiresBefore = t
	}
	return opts, nil
}

func formatReports(w io.Writer, reports types.List[types.Report]) error {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-12s  %-40s  %-10s  %-6s  %-16s  %s\n",
		"ID", "Type", "Title", "State", "Format", "Launched", "Size")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for _, r := range reports {
		state := "-"
		if r.Status != nil {
			state = string(r.Status.State)
		}
		fmt.Fprintf(w, "%-10d  %-12s  %-40s  %-10s  %-6s  %-16s  %s\n",
			r.ID, r.Type, truncate(orDash(deref(r.Title)), 40), state,
			orDash(deref(r.OutputFormat)), formatTime(r.LaunchDatetime), orDash(deref(r.Size)))
	}
	fmt.Fprintf(w, "\n%d reports\n", len(reports))
	return nil
}

// --- launch subcommand ---

var reportsLaunchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch a report from a template",
	Long: `Launch starts report generation and prints the new report ID. The
options are checked locally first; every problem is reported before any
request is made. Use --param key=value for parameters without a flag.`,
	RunE: runReportsLaunch,
}

func runReportsLaunch(cmd *cobra.Command, args []string) error {
	opts, err := launchOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	auth, err := newAuth()
	if err != nil {
		return err
	}

	id, err := vmdr.LaunchReport(cmd.Context(), auth, opts)
	if err != nil {
		return err
	}
	log.Info().Int("report_id", id).Int("template_id", opts.TemplateID).Msg("report launched")
	fmt.Println(id)
	return nil
}

func launchOptsFromFlags(cmd *cobra.Command) (vmdr.LaunchReportOptions, error) {
	f := cmd.Flags()
	str := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}
	templateID, _ := f.GetInt("template-id")

	opts := vmdr.LaunchReportOptions{
		TemplateID:       templateID,
		Title:            str("title"),
		OutputFormat:     str("format"),
		PDFPassword:      str("pdf-password"),
		RecipientGroup:   str("recipient-group"),
		RecipientGroupID: str("recipient-group-id"),
		ReportType:       types.ReportType(str("type")),
		Domain:           str("domain"),
		IPRestriction:    str("ip-restriction"),
		ReportRefs:       str("report-refs"),
		AssetGroupIDs:    str("asset-group-ids"),
		IPsNetworkID:     str("ips-network-id"),
		IPs:              str("ips"),
		AssigneeType:     str("assignee-type"),
		PolicyID:         str("policy-id"),
		HostID:           str("host-id"),
		InstanceString:   str("instance-string"),
	}

	params, _ := f.GetStringArray("param")
	extra, err := parseParams(params)
	if err != nil {
		return opts, err
	}
	opts.Extra = extra
	return opts, nil
}

// parseParams turns repeated key=value flags into request parameters.
func parseParams(params []string) (url.Values, error) {
	if len(params) == 0 {
		return nil, nil
	}
	v := url.Values{}
	for _, p := range params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("--param %q: want key=value", p)
		}
		v.Add(strings.TrimSpace(key), value)
	}
	return v, nil
}

// --- cancel, delete and fetch subcommands ---

var reportsCancelCmd = &cobra.Command{
	Use:   "cancel ID",
	Short: "Cancel a running report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportConfirm(cmd, args[0], vmdr.CancelReport)
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a report from the Report Share",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReportConfirm(cmd, args[0], vmdr.DeleteReport)
	},
}

type confirmFunc func(ctx context.Context, auth *qualys.BasicAuth, id int) (string, error)

func runReportConfirm(cmd *cobra.Command, arg string, do confirmFunc) error {
	id, err := parseReportID(arg)
	if err != nil {
		return err
	}
	auth, err := newAuth()
	if err != nil {
		return err
	}
	msg, err := do(cmd.Context(), auth, id)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

var reportsFetchCmd = &cobra.Command{
	Use:   "fetch ID",
	Short: "Download a finished report",
	Long: `Fetch downloads the report content exactly as generated. Without
--out the content is written to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runReportsFetch,
}

func runReportsFetch(cmd *cobra.Command, args []string) error {
	id, err := parseReportID(args[0])
	if err != nil {
		return err
	}
	auth, err := newAuth()
	if err != nil {
		return err
	}

	data, err := vmdr.FetchReport(cmd.Context(), auth, id)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" || out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	log.Info().Int("report_id", id).Str("path", out).Int("bytes", len(data)).Msg("report saved")
	return nil
}

func parseReportID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid report ID %q", s)
	}
	return id, nil
}

func init() {
	reportsListCmd.Flags().Int("id", 0, "only the report with this ID")
	reportsListCmd.Flags().String("state", "", "filter by state: Submitted, Running, Finished, Canceled, Errors")
	reportsListCmd.Flags().String("user-login", "", "filter by the user who launched the report")
	reportsListCmd.Flags().String("expires-before", "", "reports expiring before this date (YYYY-MM-DD or RFC 3339)")
	reportsListCmd.Flags().Int("client-id", 0, "consultant subscriptions: client ID")
	reportsListCmd.Flags().String("client-name", "", "consultant subscriptions: client name")
	reportsListCmd.Flags().String("filter", "", "local filter expression over record fields")
	reportsListCmd.Flags().Bool("archive", false, "save the result as an archive snapshot")

	lf := reportsLaunchCmd.Flags()
	lf.Int("template-id", 0, "report template ID (required)")
	lf.String("title", "", "report title")
	lf.String("format", "", "output format: pdf, html, mht, xml, csv, docx, online")
	lf.String("type", "", "report type: "+reportTypeList())
	lf.String("pdf-password", "", "password for PDF output (8-32 chars, letters and digits)")
	lf.String("recipient-group", "", "share the PDF with these user groups")
	lf.String("recipient-group-id", "", "share the PDF with these user group IDs")
	lf.String("domain", "", "target domain (Map reports)")
	lf.String("ip-restriction", "", "IPs to include when --domain is None")
	lf.String("report-refs", "", "map references (Map reports)")
	lf.String("asset-group-ids", "", "asset group IDs")
	lf.String("ips-network-id", "", "network ID for --ips")
	lf.String("ips", "", "IPs or ranges")
	lf.String("assignee-type", "", "User or All (Remediation reports)")
	lf.String("policy-id", "", "compliance policy ID")
	lf.String("host-id", "", "host ID (with --instance-string)")
	lf.String("instance-string", "", "host instance (with --host-id)")
	lf.StringArray("param", nil, "extra request parameter as key=value (repeatable)")

	reportsFetchCmd.Flags().StringP("out", "o", "", "write the report to this file")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsLaunchCmd)
	reportsCmd.AddCommand(reportsCancelCmd)
	reportsCmd.AddCommand(reportsFetchCmd)
	reportsCmd.AddCommand(reportsDeleteCmd)

	rootCmd.AddCommand(reportsCmd)
}

func reportTypeList() string {
	names := make([]string, len(types.ReportTypes))
	for i, rt := range types.ReportTypes {
		names[i] = string(rt)
	}
	return strings.Join(names, ", ")
}
