// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/qualys-vmdr/pkg/types"
	"github.com/pdiddy/qualys-vmdr/pkg/vmdr"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List report templates",
	Long: `Templates lists the report templates available to the user. Pass a
template ID to reports launch --template-id.`,
	RunE: runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	auth, err := newAuth()
	if err != nil {
		return err
	}
	templates, err := vmdr.GetTemplateList(cmd.Context(), auth)
	if err != nil {
		return err
	}
	if expr, _ := cmd.Flags().GetString("filter"); expr != "" {
		if templates, err = types.Where(templates, expr); err != nil {
			return err
		}
	}
	return render(os.Stdout, templates, func(w io.Writer) error {
		return formatTemplates(w, templates)
	})
}

func formatTemplates(w io.Writer, templates types.List[types.ReportTemplate]) error {
	if len(templates) == 0 {
		fmt.Fprintln(w, "No templates found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-12s  %-6s  %-44s  %-16s  %s\n",
		"ID", "Report Type", "Kind", "Title", "Owner", "Updated")
	fmt.Fprintln(w, strings.Repeat("-", 108))
	for _, t := range templates {
		owner := ""
		if t.User != nil {
			owner = deref(t.User.Login)
		}
		title := deref(t.Title)
		if deref(t.Global) {
			title += " (global)"
		}
		fmt.Fprintf(w, "%-10d  %-12s  %-6s  %-44s  %-16s  %s\n",
			t.ID, t.TemplateType, t.Type, truncate(orDash(title), 44), truncate(orDash(owner), 16), formatTime(t.LastUpdate))
	}
	fmt.Fprintf(w, "\n%d templates\n", len(templates))
	return nil
}

func init() {
	templatesCmd.Flags().String("filter", "", "local filter expression over record fields")

	rootCmd.AddCommand(templatesCmd)
}
