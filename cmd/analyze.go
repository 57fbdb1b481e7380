package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/logging"
	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/service"
	"github.com/KaramelBytes/insightloom/internal/utils"
)

var (
	anaOutputPath  string
	anaColumn      string
	anaValueColumn string
	anaSheetName   string
	anaJSON        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX file locally and print the summary and insight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		a := service.New(report.NewBuilder(), logging.New("service"))
		res, err := a.Analyze(cmd.Context(), service.Request{
			Filename:    filepath.Base(path),
			Data:        data,
			Column:      anaColumn,
			ValueColumn: anaValueColumn,
			Sheet:       anaSheetName,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if anaJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		} else {
			fmt.Fprintln(out, "Data Summary")
			fmt.Fprintln(out, res.Summary)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "AI Insight")
			fmt.Fprintln(out, res.Insight)
		}

		if anaOutputPath != "" {
			pdf, err := report.Decode(res.ReportPDF)
			if err != nil {
				return err
			}
			if err := utils.SafeWriteFile(anaOutputPath, pdf); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote report to %s\n", anaOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the PDF report")
	analyzeCmd.Flags().StringVar(&anaColumn, "column", "", "category column for the insight")
	analyzeCmd.Flags().StringVar(&anaValueColumn, "value-column", "", "numeric value column for the insight")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to analyze (default first sheet)")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print the endpoint-shaped JSON response instead of text")
}
