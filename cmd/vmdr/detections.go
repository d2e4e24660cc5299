// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/qualys-vmdr/internal/coerce"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
	"github.com/pdiddy/qualys-vmdr/pkg/vmdr"
)

var detectionsCmd = &cobra.Command{
	Use:   "detections",
	Short: "List hosts with their detections",
	Long: `Detections calls the host list detection API and prints one row per
detection. --filter applies to detections; hosts left without any are
dropped:

  vmdr detections --show-qds --filter 'SEVERITY >= 4 and like(RESULTS, "openssl")'

Large subscriptions are answered in pages. When the response is truncated
the next --id-min is printed to stderr; run the command again with it to
continue.`,
	RunE: runDetections,
}

func runDetections(cmd *cobra.Command, args []string) error {
	opts, err := detectionOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	auth, err := newAuth()
	if err != nil {
		return err
	}

	page, err := vmdr.GetHostListDetections(cmd.Context(), auth, opts)
	if err != nil {
		return err
	}
	hosts := page.Hosts
	if expr, _ := cmd.Flags().GetString("filter"); expr != "" {
		if hosts, err = filterDetections(hosts, expr); err != nil {
			return err
		}
	}
	if err := maybeArchiveHosts(cmd, hosts); err != nil {
		return err
	}
	if page.Warning != nil {
		log.Warn().Int("code", page.Warning.Code).Int("next_id_min", page.Warning.NextIDMin()).
			Msg(strings.TrimSpace(page.Warning.Text))
	}

	return render(os.Stdout, hosts, func(w io.Writer) error {
		return formatDetections(w, hosts)
	})
}

// filterDetections keeps the detections matching expr and drops hosts left
// with none.
func filterDetections(hosts types.List[types.Host], expr string) (types.List[types.Host], error) {
	var out types.List[types.Host]
	for _, h := range hosts {
		kept, err := types.Where(types.List[types.Detection](h.Detections), expr)
		if err != nil {
			return nil, err
		}
		if len(kept) == 0 {
			continue
		}
		h.Detections = kept
		out = append(out, h)
	}
	return out, nil
}

func detectionOptsFromFlags(cmd *cobra.Command) (vmdr.HostDetectionOptions, error) {
	f := cmd.Flags()
	ids, _ := f.GetString("ids")
	ips, _ := f.GetString("ips")
	qids, _ := f.GetIntSlice("qids")
	severities, _ := f.GetIntSlice("severities")
	statuses, _ := f.GetStringSlice("status")
	showQDS, _ := f.GetBool("show-qds")
	showFactors, _ := f.GetBool("show-qds-factors")
	idMin, _ := f.GetInt("id-min")
	since, _ := f.GetString("updated-since")
	params, _ := f.GetStringArray("param")

	opts := vmdr.HostDetectionOptions{
		IDs:            ids,
		IPs:            ips,
		QIDs:           qids,
		Severities:     severities,
		ShowQDS:        showQDS,
		ShowQDSFactors: showFactors,
		IDMin:          idMin,
	}
	for _, s := range statuses {
		opts.Status = append(opts.Status, types.DetectionStatus(s))
	}
	if f.Changed("show-results") {
		v, _ := f.GetBool("show-results")
		opts.ShowResults = &v
	}
	if f.Changed("truncation-limit") {
		v, _ := f.GetInt("truncation-limit")
		opts.TruncationLimit = &v
	}
	if since != "" {
		t, err := coerce.Time(since)
		if err != nil {
			return opts, fmt.Errorf("--updated-since: %w", err)
		}
		opts.DetectionUpdatedSince = t
	}

	extra, err := parseParams(params)
	if err != nil {
		return opts, err
	}
	opts.Extra = extra
	return opts, nil
}

func formatDetections(w io.Writer, hosts types.List[types.Host]) error {
	if len(hosts) == 0 {
		fmt.Fprintln(w, "No hosts found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-15s  %-8s  %-3s  %-10s  %-9s  %-5s  %-4s  %s\n",
		"Host", "IP", "QID", "Sev", "Type", "Status", "Port", "QDS", "Results")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	var count int
	for _, h := range hosts {
		for _, d := range h.Detections {
			port, qds := "-", "-"
			if d.Port != nil {
				port = fmt.Sprint(*d.Port)
			}
			if d.QDS != nil {
				qds = fmt.Sprint(d.QDS.Score)
			}
			fmt.Fprintf(w, "%-10d  %-15s  %-8d  %-3d  %-10s  %-9s  %-5s  %-4s  %s\n",
				h.ID, orDash(deref(h.IP)), d.QID, d.Severity, d.Type, d.Status, port, qds,
				truncate(deref(d.Results), 30))
			count++
		}
	}
	fmt.Fprintf(w, "\n%d detections on %d hosts\n", count, len(hosts))
	return nil
}

func init() {
	f := detectionsCmd.Flags()
	f.String("ids", "", "host IDs or ranges (comma-separated)")
	f.String("ips", "", "host IPs or ranges (comma-separated)")
	f.IntSlice("qids", nil, "only these QIDs")
	f.IntSlice("severities", nil, "only these severities (1-5)")
	f.StringSlice("status", nil, "only these statuses: New, Active, Fixed, Re-Opened")
	f.Bool("show-results", true, "include scanner results")
	f.Bool("show-qds", false, "include the Qualys Detection Score")
	f.Bool("show-qds-factors", false, "include the QDS contributing factors")
	f.Int("truncation-limit", 0, "maximum hosts per response (0 = no limit)")
	f.Int("id-min", 0, "start at this host ID")
	f.String("updated-since", "", "detections updated since this date (YYYY-MM-DD or RFC 3339)")
	f.StringArray("param", nil, "extra request parameter as key=value (repeatable)")
	f.String("filter", "", "local filter expression over detection fields")
	f.Bool("archive", false, "save the result as an archive snapshot")

	rootCmd.AddCommand(detectionsCmd)
}
