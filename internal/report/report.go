package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2/roboto"
	"golang.org/x/text/encoding/charmap"
)

// Fixed template text.
const (
	Title          = "AI Data Insight Report"
	SummaryHeading = "Summary:"
	InsightHeading = "AI Insight:"
	// Filename is the suggested download name for the rendered report.
	Filename = "AI_Insight_Report.pdf"
)

// Layout in points on a US Letter page with one inch margins.
const (
	margin      = 72.0
	spacer      = 12.0
	titleSize   = 18.0
	headingSize = 14.0
	bodySize    = 10.0
	monoSize    = 8.0
)

// Builder renders the three-section insight report to PDF. Every call works on its own
// in-memory document, so a Builder is safe for concurrent use.
type Builder struct {
	// Compress deflates page content streams.
	Compress bool
}

// NewBuilder returns a Builder with stream compression on.
func NewBuilder() *Builder { return &Builder{Compress: true} }

// Build lays out the title, the summary and the insight and returns the PDF bytes.
func (b *Builder) Build(summary, insight string) ([]byte, error) {
	summary, insight = normalizeNewlines(summary), normalizeNewlines(insight)
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(b.Compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(Title, true)
	pdf.SetCreator("insightloom", true)
	pdf.SetSubject("document "+uuid.NewString(), true)
	fs := pickFonts(pdf, summary+insight)

	pdf.AddPage()
	pdf.SetFont(fs.sans, "B", titleSize)
	pdf.MultiCell(0, titleSize*1.2, fs.tr(Title), "", "C", false)
	pdf.Ln(spacer)

	heading(pdf, fs, SummaryHeading)
	pdf.SetFont(fs.mono, "", monoSize)
	// newlines become line breaks; MultiCell honours them
	pdf.MultiCell(0, monoSize*1.25, fs.tr(summary), "", "L", false)
	pdf.Ln(spacer)

	heading(pdf, fs, InsightHeading)
	pdf.SetFont(fs.sans, "", bodySize)
	pdf.MultiCell(0, bodySize*1.2, fs.tr(insight), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// fonts names the families in use and how text is encoded for them.
type fonts struct {
	sans, mono string
	tr         func(string) string
}

// pickFonts keeps the core fonts when text fits cp1252 and otherwise embeds Roboto as a UTF-8
// font for every section. Scripts Roboto has no glyphs for (CJK among them) still render blank.
func pickFonts(pdf *fpdf.Fpdf, text string) fonts {
	if fitsCP1252(text) {
		return fonts{sans: "Helvetica", mono: "Courier", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	}
	pdf.AddUTF8FontFromBytes(utf8Family, "", roboto.Roboto)
	pdf.AddUTF8FontFromBytes(utf8Family, "B", roboto.Roboto)
	return fonts{sans: utf8Family, mono: utf8Family, tr: func(s string) string { return s }}
}

const utf8Family = "roboto"

func fitsCP1252(s string) bool {
	for _, r := range s {
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			return false
		}
	}
	return true
}

func heading(pdf *fpdf.Fpdf, fs fonts, text string) {
	pdf.SetFont(fs.sans, "B", headingSize)
	pdf.MultiCell(0, headingSize*1.2, fs.tr(text), "", "L", false)
	pdf.Ln(headingSize * 0.4)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Encode returns the standard base64 form used on the wire.
func Encode(pdf []byte) string { return base64.StdEncoding.EncodeToString(pdf) }

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return b, nil
}

// IsPDF reports whether b carries the PDF header and trailer markers.
func IsPDF(b []byte) bool {
	return bytes.HasPrefix(b, []byte("%PDF-")) && bytes.Contains(b[max(0, len(b)-1024):], []byte("%%EOF"))
}
