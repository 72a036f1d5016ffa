package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/flatten"
	"github.com/jadenpxrk/monofile/pkg/logging"
	"github.com/jadenpxrk/monofile/pkg/source"
	"github.com/jadenpxrk/monofile/pkg/stats"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
)

const (
	pdfPageWidth  = 210 // A4, mm
	pdfMargin     = 10
	pdfLineHeight = 5
	pdfFontSize   = 9
	pdfTabWidth   = 4
	pdfTextWidth  = pdfPageWidth - 2*pdfMargin
)

// PDFOptions controls PDF rendering.
type PDFOptions struct {
	Style     string     // chroma style name, "github" by default
	Tree      bool       // print the directory tree before the files
	RootName  string     // tree root label
	Languages *Languages // optional languages.yml lookup used before chroma's own matching
	Logger    *zap.Logger
}

// WritePDF renders set to a PDF file at path.
func WritePDF(path string, set source.RecordSet, st stats.ProcessingStats, opts PDFOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create PDF %s: %w", path, err)
	}
	if err := RenderPDF(f, set, st, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", path, err)
	}
	logging.OrNop(opts.Logger).Info("Saved PDF", zap.String("path", path))
	return nil
}

// RenderPDF writes a syntax-highlighted PDF of set to w: optional tree, one page per file, summary.
func RenderPDF(w io.Writer, set source.RecordSet, st stats.ProcessingStats, opts PDFOptions) error {
	logger := logging.OrNop(opts.Logger)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	style := styles.Get(opts.Style)
	if opts.Style == "" {
		style = styles.Get("github")
	}
	if style == nil {
		style = styles.Fallback
	}

	if opts.Tree {
		pdf.SetFont("Courier", "", pdfFontSize)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(flatten.Tree(set, opts.RootName)), "", "L", false)
		pdf.AddPage()
	}

	for i, rec := range set {
		pdf.SetFont("Helvetica", "B", pdfFontSize+1)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr("File: "+rec.Path), "", "L", false)
		pdf.Ln(pdfLineHeight / 2)
		pdf.Line(pdfMargin, pdf.GetY(), pdfPageWidth-pdfMargin, pdf.GetY())
		pdf.Ln(pdfLineHeight / 2)

		if rec.IsBinary() {
			pdf.SetFont("Courier", "I", pdfFontSize)
			pdf.SetTextColor(110, 110, 110)
			pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(rec.Content), "", "L", false)
		} else if err := writeHighlightedCode(pdf, tr, style, rec, opts.Languages); err != nil {
			logger.Warn("Syntax highlighting failed, writing plain text", zap.String("path", rec.Path), zap.Error(err))
			pdf.SetFont("Courier", "", pdfFontSize)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(pdfTextWidth, pdfLineHeight, tr(expandTabs(rec.Content)), "", "L", false)
		}
		if i < len(set)-1 {
			pdf.AddPage()
		}
	}

	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(pdfLineHeight)
	pdf.MultiCell(pdfTextWidth, pdfLineHeight, "--- Summary ---", "", "L", false)
	pdf.Ln(pdfLineHeight / 2)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.MultiCell(pdfTextWidth, pdfLineHeight, summaryText(st), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}

func summaryText(st stats.ProcessingStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total files processed: %d\nTotal lines: %d\nTotal size: %d bytes", st.TotalFiles, st.TotalLines, st.TotalSize)
	if st.TotalTokens > 0 {
		fmt.Fprintf(&b, "\nTotal tokens: %d", st.TotalTokens)
	}
	for _, tc := range st.SortedTypes() {
		fmt.Fprintf(&b, "\n  %s: %d", tc.Type, tc.Count)
	}
	return b.String()
}

// pickLexer tries the language table, then chroma's filename rules, then content analysis.
func pickLexer(rec source.FileRecord, langs *Languages) chroma.Lexer {
	var lexer chroma.Lexer
	if lang, ok := langs.Lookup(rec.Path); ok {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Match(rec.Name)
	}
	if lexer == nil {
		lexer = lexers.Analyse(rec.Content)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func writeHighlightedCode(pdf *gofpdf.Fpdf, tr func(string) string, style *chroma.Style, rec source.FileRecord, langs *Languages) error {
	iterator, err := pickLexer(rec, langs).Tokenise(nil, rec.Content)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	pdf.SetFont("Courier", "", pdfFontSize)
	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := style.Get(token.Type)
		fontStyle := ""
		if entry.Bold == chroma.Yes {
			fontStyle += "B"
		}
		if entry.Italic == chroma.Yes {
			fontStyle += "I"
		}
		pdf.SetFontStyle(fontStyle)

		colour := entry.Colour
		if !colour.IsSet() {
			colour = style.Get(chroma.Text).Colour
		}
		if colour.IsSet() {
			pdf.SetTextColor(int(colour.Red()), int(colour.Green()), int(colour.Blue()))
		} else {
			pdf.SetTextColor(0, 0, 0)
		}

		pdf.Write(pdfLineHeight, tr(expandTabs(token.Value)))
	}
	pdf.Ln(-1)
	return pdf.Error()
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", pdfTabWidth))
}
