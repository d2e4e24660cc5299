// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qualys-vmdr/internal/archive"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Query and export saved snapshots",
	Long: `Archive works with the local SQLite snapshot database. Snapshots are
written by reports list --archive and detections --archive; nothing is
saved otherwise and the archive is never consulted before an API call.`,
}

// --- snapshots subcommand ---

var archiveSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "List saved snapshots",
	RunE:  runArchiveSnapshots,
}

func runArchiveSnapshots(cmd *cobra.Command, args []string) error {
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.Snapshots(cmd.Context())
	if err != nil {
		return err
	}
	return render(os.Stdout, snaps, func(w io.Writer) error {
		if len(snaps) == 0 {
			fmt.Fprintln(w, "No snapshots saved.")
			return nil
		}
		fmt.Fprintf(w, "%-6s  %-8s  %-20s  %s\n", "ID", "Kind", "Taken", "Records")
		fmt.Fprintln(w, strings.Repeat("-", 48))
		for _, s := range snaps {
			fmt.Fprintf(w, "%-6d  %-8s  %-20s  %d\n", s.ID, s.Kind, s.TakenAt.Format("2006-01-02 15:04:05"), s.Records)
		}
		return nil
	})
}

// --- query subcommand ---

var archiveQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search archived detections",
	Long: `Query searches the detections of a hosts snapshot (the latest by
default). Positional arguments match a substring of the scanner results.`,
	RunE: runArchiveQuery,
}

func runArchiveQuery(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	snapshot, _ := f.GetInt64("snapshot")
	minSeverity, _ := f.GetInt("min-severity")
	status, _ := f.GetString("status")
	qid, _ := f.GetInt("qid")
	limit, _ := f.GetInt("limit")

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Detections(cmd.Context(), archive.DetectionQuery{
		SnapshotID:  snapshot,
		MinSeverity: minSeverity,
		Status:      types.DetectionStatus(status),
		QID:         qid,
		Text:        strings.Join(args, " "),
		Limit:       limit,
	})
	if err != nil {
		return err
	}

	return render(os.Stdout, results, func(w io.Writer) error {
		if len(results) == 0 {
			fmt.Fprintln(w, "No results found.")
			return nil
		}
		fmt.Fprintf(w, "%-10s  %-8s  %-3s  %-10s  %-9s  %s\n", "Host", "QID", "Sev", "Type", "Status", "Results")
		fmt.Fprintln(w, strings.Repeat("-", 90))
		for _, r := range results {
			d := r.Detection
			fmt.Fprintf(w, "%-10d  %-8d  %-3d  %-10s  %-9s  %s\n",
				r.HostID, d.QID, d.Severity, d.Type, d.Status, truncate(deref(d.Results), 40))
		}
		fmt.Fprintf(w, "\n%d results\n", len(results))
		return nil
	})
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest snapshots to YAML or JSON",
	Long: `Export writes the latest reports and hosts snapshots to export.yaml or
export.json in the archive export directory.`,
	RunE: runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = archiveConfig().ExportDir
	}

	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	var path string
	switch format {
	case "yaml", "":
		path, err = store.ExportYAML(cmd.Context(), dir)
	case "json":
		path, err = store.ExportJSON(cmd.Context(), dir)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

// --- shared helpers ---

func openArchive() (*archive.Store, error) {
	return archive.Open(archiveConfig().DBPath)
}

func maybeArchiveReports(cmd *cobra.Command, reports []types.Report) error {
	if save, _ := cmd.Flags().GetBool("archive"); !save {
		return nil
	}
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.SaveReports(cmd.Context(), reports)
	if err != nil {
		return err
	}
	log.Info().Int64("snapshot", snap.ID).Int("records", snap.Records).Str("db", store.Path()).Msg("reports archived")
	return nil
}

func maybeArchiveHosts(cmd *cobra.Command, hosts []types.Host) error {
	if save, _ := cmd.Flags().GetBool("archive"); !save {
		return nil
	}
	store, err := openArchive()
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.SaveHosts(cmd.Context(), hosts)
	if err != nil {
		return err
	}
	log.Info().Int64("snapshot", snap.ID).Int("records", snap.Records).Str("db", store.Path()).Msg("hosts archived")
	return nil
}

func init() {
	archiveCmd.PersistentFlags().String("db", "", "snapshot database (default from config archive.db_path)")
	if err := viper.BindPFlag("archive.db_path", archiveCmd.PersistentFlags().Lookup("db")); err != nil {
		panic(err)
	}

	archiveQueryCmd.Flags().Int64("snapshot", 0, "hosts snapshot ID (0 = latest)")
	archiveQueryCmd.Flags().Int("min-severity", 0, "minimum severity")
	archiveQueryCmd.Flags().String("status", "", "detection status")
	archiveQueryCmd.Flags().Int("qid", 0, "only this QID")
	archiveQueryCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")

	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveExportCmd.Flags().String("dir", "", "output directory (default from config archive.export_dir)")

	archiveCmd.AddCommand(archiveSnapshotsCmd)
	archiveCmd.AddCommand(archiveQueryCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
