package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/insightloom/internal/logging"
	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/service"
	"github.com/KaramelBytes/insightloom/internal/utils"
)

var (
	abOutDir      string
	abColumn      string
	abValueColumn string
	abSheetName   string
	abWorkers     int
	abQuiet       bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files and write one PDF report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		outDir := abOutDir
		if outDir == "" {
			outDir = currentConfig().OutputDir
		}
		if outDir == "" {
			outDir = "."
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		a := service.New(report.NewBuilder(), logging.New("service"))
		names := reportNames(files)
		out := cmd.OutOrStdout()
		var mu sync.Mutex
		total := len(files)
		done := 0

		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(max(1, abWorkers))
		for i, path := range files {
			g.Go(func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("%s: read input: %w", path, err)
				}
				res, err := a.Analyze(ctx, service.Request{
					Filename:    filepath.Base(path),
					Data:        data,
					Column:      abColumn,
					ValueColumn: abValueColumn,
					Sheet:       abSheetName,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				pdf, err := report.Decode(res.ReportPDF)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				target := filepath.Join(outDir, names[i])
				if err := utils.SafeWriteFile(target, pdf); err != nil {
					return fmt.Errorf("%s: write report: %w", path, err)
				}

				mu.Lock()
				defer mu.Unlock()
				done++
				if !abQuiet {
					fmt.Fprintf(out, "[%d/%d] %s -> %s\n", done, total, filepath.Base(path), target)
					fmt.Fprintf(out, "  %s\n", res.Insight)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if !abQuiet {
			fmt.Fprintf(out, "✓ Wrote %d report(s) to %s\n", total, outDir)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist, drops duplicates and sorts.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// reportNames derives <base>.report.pdf per input, suffixing __2, __3 ... on collisions.
func reportNames(files []string) []string {
	out := make([]string, len(files))
	used := map[string]int{}
	for i, path := range files {
		base := filepath.Base(path)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		used[stem]++
		if n := used[stem]; n > 1 {
			out[i] = fmt.Sprintf("%s__%d.report.pdf", stem, n)
			continue
		}
		out[i] = stem + ".report.pdf"
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutDir, "out", "o", "", "directory for the PDF reports (default output_dir)")
	analyzeBatchCmd.Flags().StringVar(&abColumn, "column", "", "category column for every file's insight")
	analyzeBatchCmd.Flags().StringVar(&abValueColumn, "value-column", "", "numeric value column for every file's insight")
	analyzeBatchCmd.Flags().StringVar(&abSheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	analyzeBatchCmd.Flags().IntVar(&abWorkers, "workers", 4, "files analyzed in parallel")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
