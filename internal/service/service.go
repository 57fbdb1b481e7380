// Package service runs the ingest, summarize, insight and report pipeline for one upload.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/insight"
	"github.com/KaramelBytes/insightloom/internal/parser"
	"github.com/KaramelBytes/insightloom/internal/report"
)

// DefaultChartType is assumed when a request names no chart type.
const DefaultChartType = "bar"

// Request carries one uploaded file and the user's column choices.
type Request struct {
	Filename    string
	Data        []byte
	ChartType   string
	Column      string
	ValueColumn string
	Sheet       string
}

// Result is the full answer for a successful request.
type Result struct {
	Summary   string `json:"summary"`
	Insight   string `json:"ai_insight"`
	ReportPDF string `json:"report_pdf"`
}

// Analyzer is stateless apart from its collaborators and may serve concurrent requests.
type Analyzer struct {
	reports *report.Builder
	log     *slog.Logger
}

// New returns an Analyzer. A nil builder uses report.NewBuilder; a nil logger discards.
func New(reports *report.Builder, log *slog.Logger) *Analyzer {
	if reports == nil {
		reports = report.NewBuilder()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{reports: reports, log: log}
}

// Analyze parses req.Data, describes it, derives the insight and renders the report.
// Errors are *parser.ParseError, parser.ErrEmptyDataset, *insight.ComputationError or a
// wrapped rendering failure.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.ChartType == "" {
		req.ChartType = DefaultChartType
	}
	ds, err := parser.Parse(req.Filename, req.Data, parser.Options{Sheet: req.Sheet})
	if err != nil {
		return nil, err
	}
	a.log.Debug("parsed upload", "file", ds.Name, "rows", ds.Rows(), "columns", len(ds.Columns))

	summary := analysis.Describe(ds).String()
	text, err := insight.Average(ds, req.Column, req.ValueColumn)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pdf, err := a.reports.Build(summary, text)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	a.log.Debug("report built", "file", ds.Name, "bytes", len(pdf), "chart_type", req.ChartType)
	return &Result{Summary: summary, Insight: text, ReportPDF: report.Encode(pdf)}, nil
}
