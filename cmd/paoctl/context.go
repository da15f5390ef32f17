package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yungbote/pao-report-backend/internal/app"
	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
)

var (
	contextJSON       bool
	contextOnlyFilled bool
)

var contextCmd = &cobra.Command{
	Use:   "context <pao_id>",
	Short: "Print the template context built for a PAO",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			tc, err := a.Services.Reports.BuildContext(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if contextJSON {
				return writeContextJSON(os.Stdout, tc)
			}
			writeContextTable(os.Stdout, tc, contextOnlyFilled)
			return nil
		})
	},
}

func init() {
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "print the context as JSON")
	contextCmd.Flags().BoolVar(&contextOnlyFilled, "filled", false, "hide keys with empty values")
}

func writeContextJSON(w io.Writer, tc contextbuilder.TemplateContext) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tc)
}

// writeContextTable prints keys in canonical template order.
func writeContextTable(w io.Writer, tc contextbuilder.TemplateContext, onlyFilled bool) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(false)
	for _, key := range contextbuilder.Keys() {
		val := tc[key]
		if onlyFilled && val == "" {
			continue
		}
		table.Append([]string{key, val})
	}
	table.Render()
}
