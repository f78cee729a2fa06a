package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/obsforge/internal/catalog"
	"github.com/valter-silva-au/obsforge/pkg/models"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [resource-type]",
	Short: "List supported resource types and their default alarms and widgets",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := Catalog
		if cat == nil {
			cat = catalog.Default()
		}
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-20s %-8s %s", "TYPE", "ALARMS", "WIDGETS")))
			for _, rt := range cat.ResourceTypes() {
				fmt.Fprintf(out, "%-20s %-8d %d\n", rt, len(cat.Alarms(rt)), len(cat.Widgets(rt)))
			}
			return nil
		}

		rt := models.ResourceType(args[0])
		if !cat.Known(rt) {
			return fmt.Errorf("resource type %q is not in the catalog", args[0])
		}

		fmt.Fprintln(out, titleStyle.Render(" "+string(rt)+" "))
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Alarms"))
		for _, a := range cat.Alarms(rt) {
			sev := styleForSeverity(a.Severity).Render(fmt.Sprintf("%-9s", a.Severity))
			fmt.Fprintf(out, "  %s %-22s %-4s %-12s %s\n",
				sev, a.MetricName, comparisonSymbol(a.Comparison),
				strconv.FormatFloat(a.DefaultThreshold, 'g', -1, 64), mutedStyle.Render(a.Description))
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render("Widgets"))
		for _, w := range cat.Widgets(rt) {
			roles := make([]string, len(w.Roles))
			for i, r := range w.Roles {
				roles[i] = string(r)
			}
			fmt.Fprintf(out, "  %-16s %-13s %s\n", w.Kind, w.View, strings.Join(roles, ", "))
		}
		return nil
	},
}

func init() {
	catalogCmd.ValidArgsFunction = completeFirstArg(completeResourceTypes)
	rootCmd.AddCommand(catalogCmd)
}
