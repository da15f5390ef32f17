package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/pao-report-backend/internal/app"
	"github.com/yungbote/pao-report-backend/internal/services"
)

var generateFormats []string

var generateCmd = &cobra.Command{
	Use:   "generate <pao_id>",
	Short: "Render, convert and upload the report for a PAO",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		formats, err := services.ParseFormats(generateFormats)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			res, err := a.Services.Reports.Generate(cmd.Context(), services.GenerateRequest{PaoID: args[0], Formats: formats})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.DocxURL != "" {
				fmt.Fprintf(out, "docx: %s\n", res.DocxURL)
			}
			if res.PDFURL != "" {
				fmt.Fprintf(out, "pdf:  %s (%d pages)\n", res.PDFURL, res.Pages)
			}
			if res.SignedDocxURL != "" {
				fmt.Fprintf(out, "signed docx: %s\n", res.SignedDocxURL)
			}
			if res.SignedPDFURL != "" {
				fmt.Fprintf(out, "signed pdf:  %s\n", res.SignedPDFURL)
			}
			return nil
		})
	},
}

func init() {
	generateCmd.Flags().StringSliceVar(&generateFormats, "format", nil, "formats to produce (docx, pdf); default both")
}
