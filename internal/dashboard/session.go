// Package dashboard drives one interactive analysis session: load a file, preview it, choose
// columns and a chart, send it to the endpoint and present what comes back.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/chart"
	"github.com/KaramelBytes/insightloom/internal/client"
	"github.com/KaramelBytes/insightloom/internal/format"
	"github.com/KaramelBytes/insightloom/internal/insight"
	"github.com/KaramelBytes/insightloom/internal/parser"
	"github.com/KaramelBytes/insightloom/internal/report"
)

// DefaultPreviewRows is the number of rows Preview shows when asked for zero.
const DefaultPreviewRows = 5

// User-facing messages.
const (
	PreviewFailedMessage = "Could not preview this file. Please upload a valid CSV/Excel file."
	CompleteMessage      = "Analysis Complete!"
	chartWarningPrefix   = "Chart could not be generated: "
)

// Analyzer sends an upload to the analysis endpoint.
type Analyzer interface {
	Analyze(ctx context.Context, up client.Upload) (*client.Response, error)
}

// Selection is the user's column and chart choice.
type Selection struct {
	Column      string
	ValueColumn string
	Chart       chart.Kind
}

// View is what the session presents after a successful analysis.
type View struct {
	Summary      string
	Insight      string
	Caption      string
	ChartKind    chart.Kind
	Chart        []byte // PNG; nil when ChartWarning is set
	ChartWarning string
	Report       []byte // PDF
	RequestID    string
}

// Session holds the state of one user's interaction. It is not safe for concurrent use.
type Session struct {
	api   Analyzer
	log   *slog.Logger
	state State

	filename string
	data     []byte
	ds       *analysis.Dataset
	sel      Selection

	previewErr error
	lastErr    error
	view       *View
}

// New starts an idle session backed by api.
func New(api Analyzer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{api: api, log: log, state: StateIdle}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Dataset returns the locally parsed dataset, or nil before a file is loaded.
func (s *Session) Dataset() *analysis.Dataset { return s.ds }

// Filename returns the name of the loaded file.
func (s *Session) Filename() string { return s.filename }

// Selection returns the active selection.
func (s *Session) Selection() Selection { return s.sel }

// PreviewError returns why the last Load could not be previewed.
func (s *Session) PreviewError() error { return s.previewErr }

// Err returns the failure shown in the error-shown state.
func (s *Session) Err() error { return s.lastErr }

// View returns the result shown in the result-shown state.
func (s *Session) View() *View { return s.view }

// Load parses the file locally for preview. On success the session moves to file-loaded with a
// default selection; on failure it drops any previous file and sits in idle.
func (s *Session) Load(filename string, data []byte) error {
	if s.state == StateAnalyzing {
		return &TransitionError{From: s.state, To: StateFileLoaded}
	}
	ds, err := parser.Parse(filename, data, parser.Options{})
	if err != nil {
		s.reset()
		s.previewErr = err
		s.log.Debug("preview failed", "file", filename, "err", err)
		return fmt.Errorf("%s: %w", PreviewFailedMessage, err)
	}
	if err := s.moveTo(StateFileLoaded); err != nil {
		return err
	}
	s.filename, s.data, s.ds = filename, data, ds
	s.previewErr, s.lastErr, s.view = nil, nil, nil
	first := ds.Columns[0].Name
	s.sel = Selection{Column: first, ValueColumn: first, Chart: chart.Bar}
	s.log.Debug("file loaded", "file", filename, "rows", ds.Rows(), "columns", len(ds.Columns))
	return nil
}

func (s *Session) reset() {
	s.state = StateIdle
	s.filename, s.data, s.ds = "", nil, nil
	s.sel = Selection{}
	s.lastErr, s.view = nil, nil
}

// Preview renders the first n rows (DefaultPreviewRows when n <= 0) as a text table.
func (s *Session) Preview(n int) (string, error) {
	if s.ds == nil {
		return "", errors.New("no file loaded")
	}
	if n <= 0 {
		n = DefaultPreviewRows
	}
	n = min(n, s.ds.Rows())
	t := format.NewTable(format.ASCII)
	header := append([]string{""}, s.ds.Names()...)
	t.Header(header...)
	for i := 0; i < n; i++ {
		row := make([]any, 0, len(header))
		row = append(row, i)
		for _, cell := range s.ds.Row(i) {
			if cell == "" {
				cell = "NaN"
			}
			row = append(row, cell)
		}
		t.Row(row...)
	}
	return t.String(), nil
}

// Select validates and stores the user's choice. Columns must exist in the loaded dataset.
func (s *Session) Select(sel Selection) error {
	if s.ds == nil {
		return errors.New("no file loaded")
	}
	for _, name := range []string{sel.Column, sel.ValueColumn} {
		if !s.ds.Has(name) {
			return fmt.Errorf("unknown column %q", name)
		}
	}
	kind, err := chart.ParseKind(string(sel.Chart))
	if err != nil {
		return err
	}
	sel.Chart = kind
	s.sel = sel
	return nil
}

// Analyze sends the loaded file with the active selection and builds the View. Endpoint and
// report failures move the session to error-shown; chart and caption failures only degrade
// the View.
func (s *Session) Analyze(ctx context.Context) (*View, error) {
	if err := s.moveTo(StateAnalyzing); err != nil {
		return nil, err
	}
	s.view, s.lastErr = nil, nil

	resp, err := s.api.Analyze(ctx, client.Upload{
		Filename:    s.filename,
		Data:        s.data,
		ChartType:   string(s.sel.Chart),
		Column:      s.sel.Column,
		ValueColumn: s.sel.ValueColumn,
	})
	if err != nil {
		return nil, s.fail(describe(err))
	}
	pdf, err := resp.Report()
	if err == nil && !report.IsPDF(pdf) {
		err = errors.New("not a PDF document")
	}
	if err != nil {
		return nil, s.fail(&Failure{Message: "Backend Error: undecodable report: " + err.Error(), Err: err})
	}

	v := &View{
		Summary:   resp.Summary,
		Insight:   resp.Insight,
		ChartKind: s.sel.Chart,
		Report:    pdf,
		RequestID: resp.RequestID,
	}
	v.Caption, err = insight.TopContributor(s.ds, s.sel.Column, s.sel.ValueColumn)
	if err != nil {
		s.log.Debug("caption unavailable", "err", err)
		v.Caption = insight.CaptionFallback
	}
	png, err := chart.Render(s.sel.Chart, s.ds, s.sel.Column, s.sel.ValueColumn)
	if err != nil {
		v.ChartWarning = chartWarningPrefix + err.Error()
	} else {
		v.Chart = png
	}

	s.state = StateResultShown
	s.view = v
	return v, nil
}

func (s *Session) fail(err error) error {
	s.state = StateErrorShown
	s.lastErr = err
	s.log.Debug("analysis failed", "err", err)
	return err
}

// Failure is an endpoint or report problem as shown to the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// describe turns an endpoint failure into the message shown to the user.
func describe(err error) *Failure {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return &Failure{Message: "Backend Error: " + apiErr.Message, Err: err}
	}
	return &Failure{Message: "Could not connect to backend: " + err.Error(), Err: err}
}

func (s *Session) moveTo(to State) error {
	if !CanTransition(s.state, to) {
		return &TransitionError{From: s.state, To: to}
	}
	s.state = to
	return nil
}
