package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/chart"
	"github.com/KaramelBytes/insightloom/internal/client"
	"github.com/KaramelBytes/insightloom/internal/dashboard"
	"github.com/KaramelBytes/insightloom/internal/logging"
	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/utils"
)

var (
	dashColumn      string
	dashValueColumn string
	dashChart       string
	dashOutDir      string
	dashEndpoint    string
	dashPreviewRows int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <file>",
	Short: "Preview a dataset, send it to the analysis endpoint and save the chart and report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := currentConfig()
		out := cmd.OutOrStdout()
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		endpoint := c.EndpointURL
		if dashEndpoint != "" {
			endpoint = dashEndpoint
		}
		api := client.New(endpoint, c.HTTPTimeout())
		s := dashboard.New(api, logging.New("dashboard"))

		if err := s.Load(filepath.Base(path), data); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s\n", dashboard.PreviewFailedMessage)
			return s.PreviewError()
		}
		rows := c.PreviewRows
		if dashPreviewRows > 0 {
			rows = dashPreviewRows
		}
		preview, err := s.Preview(rows)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Preview of Uploaded Data")
		fmt.Fprintln(out, preview)

		in := bufio.NewReader(cmd.InOrStdin())
		names := s.Dataset().Names()
		sel := dashboard.Selection{Column: dashColumn, ValueColumn: dashValueColumn, Chart: chart.Kind(dashChart)}
		if sel.Column == "" {
			sel.Column = choose(in, out, "Select Category Column", names)
		}
		if sel.ValueColumn == "" {
			sel.ValueColumn = choose(in, out, "Select Value Column (for numerical analysis)", names)
		}
		if sel.Chart == "" {
			kinds := make([]string, 0, 3)
			for _, k := range chart.Kinds() {
				kinds = append(kinds, string(k))
			}
			sel.Chart = chart.Kind(choose(in, out, "Select Chart Type", kinds))
		}
		if err := s.Select(sel); err != nil {
			return err
		}

		fmt.Fprintf(out, "Analyzing %s via %s...\n", s.Filename(), api.Endpoint())
		v, err := s.Analyze(cmd.Context())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
			return err
		}
		fmt.Fprintf(out, "✓ %s\n\n", dashboard.CompleteMessage)
		fmt.Fprintln(out, "Data Summary")
		fmt.Fprintln(out, v.Summary)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "AI Insight")
		fmt.Fprintln(out, v.Insight)
		fmt.Fprintln(out, v.Caption)

		outDir := dashOutDir
		if outDir == "" {
			outDir = c.OutputDir
		}
		if outDir == "" {
			outDir = "."
		}
		if v.ChartWarning != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", v.ChartWarning)
		} else {
			chartPath := filepath.Join(outDir, fmt.Sprintf("chart_%s.png", v.ChartKind))
			if err := utils.SafeWriteFile(chartPath, v.Chart); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote chart to %s\n", chartPath)
		}
		reportPath := filepath.Join(outDir, report.Filename)
		if err := utils.SafeWriteFile(reportPath, v.Report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "✓ Wrote report to %s\n", reportPath)
		return nil
	},
}

// choose prints the options and reads one answer. An empty answer or EOF picks the first
// option; an exact name wins over a 1-based position.
func choose(in *bufio.Reader, out io.Writer, label string, options []string) string {
	fmt.Fprintf(out, "%s:\n", label)
	for i, o := range options {
		fmt.Fprintf(out, "  %d) %s\n", i+1, o)
	}
	fmt.Fprintf(out, "> [%s] ", options[0])
	line, _ := in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return options[0]
	}
	for _, o := range options {
		if o == line {
			return o
		}
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return line
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashColumn, "column", "", "category column (prompted when omitted)")
	dashboardCmd.Flags().StringVar(&dashValueColumn, "value-column", "", "value column (prompted when omitted)")
	dashboardCmd.Flags().StringVar(&dashChart, "chart", "", "chart type: bar | line | pie (prompted when omitted)")
	dashboardCmd.Flags().StringVar(&dashOutDir, "out", "", "directory for the chart and report (default output_dir)")
	dashboardCmd.Flags().StringVar(&dashEndpoint, "endpoint", "", "analysis endpoint URL (overrides endpoint_url)")
	dashboardCmd.Flags().IntVar(&dashPreviewRows, "preview-rows", 0, "rows shown in the preview (default preview_rows)")
}
