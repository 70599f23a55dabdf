package main

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ─── Source files ────────────────────────────────────────────────────────────

// sourceFile is the currently selected upload: name and declared type as a
// browser would report them, plus size and mtime to detect rewrites.
type sourceFile struct {
	path     string
	name     string
	mimeType string
	size     int64
	modTime  time.Time
}

type fileKind int

const (
	kindUnsupported fileKind = iota
	kindTXT
	kindPDF
)

// sniffLen matches the amount of data http.DetectContentType considers.
const sniffLen = 512

// statSource builds a sourceFile for path. The declared type comes from the
// extension; extensionless files are sniffed.
func statSource(path string) (sourceFile, error) {
	path = expandHome(strings.TrimSpace(path))
	info, err := os.Stat(path)
	if err != nil {
		return sourceFile{}, err
	}
	if info.IsDir() {
		return sourceFile{}, fmt.Errorf("%s is a directory", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return sourceFile{
		path:     abs,
		name:     info.Name(),
		mimeType: declaredType(abs),
		size:     info.Size(),
		modTime:  info.ModTime(),
	}, nil
}

func declaredType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, head)
	if n == 0 {
		return ""
	}
	return http.DetectContentType(head[:n])
}

// sameAs reports whether o refers to the same unchanged file as f.
func (f sourceFile) sameAs(o sourceFile) bool {
	return f.path == o.path && f.size == o.size && f.modTime.Equal(o.modTime)
}

// classifyFile picks the reader for a file: text/plain or *.txt first, then
// application/pdf or *.pdf.
func classifyFile(name, mimeType string) fileKind {
	lower := strings.ToLower(name)
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}
	switch {
	case mt == "text/plain" || strings.HasSuffix(lower, ".txt"):
		return kindTXT
	case mt == "application/pdf" || strings.HasSuffix(lower, ".pdf"):
		return kindPDF
	}
	return kindUnsupported
}

// ─── Extraction ──────────────────────────────────────────────────────────────

// extractText reads f from disk and returns its plain text. An empty string
// with a nil error means the file holds no extractable text.
func extractText(f sourceFile) (string, error) {
	kind := classifyFile(f.name, f.mimeType)
	if kind == kindUnsupported {
		return "", errUnsupportedFormat(f.name)
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", errExtractionFailed(fmt.Errorf("read %s: %w", f.name, err))
	}
	return extractBytes(data, f.name, f.mimeType)
}

func extractBytes(data []byte, name, mimeType string) (string, error) {
	switch classifyFile(name, mimeType) {
	case kindTXT:
		return decodeUTF8(data), nil
	case kindPDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", errExtractionFailed(fmt.Errorf("pdf %s: %w", name, err))
		}
		return text, nil
	}
	return "", errUnsupportedFormat(name)
}

// decodeUTF8 decodes the whole file the way a browser's File.text() does:
// a leading BOM is dropped and each maximal invalid subpart becomes one
// U+FFFD.
func decodeUTF8(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
			data = data[invalidPrefixLen(data):]
			continue
		}
		b.Write(data[:size])
		data = data[size:]
	}
	return b.String()
}

// invalidPrefixLen returns the length of the maximal subpart of an ill-formed
// sequence at the start of p: a lead byte plus the continuation bytes that
// could still have completed it.
func invalidPrefixLen(p []byte) int {
	lo, hi, need := byte(0x80), byte(0xBF), 0
	switch c := p[0]; {
	case c >= 0xC2 && c <= 0xDF:
		need = 1
	case c == 0xE0:
		lo, need = 0xA0, 2
	case c == 0xED:
		hi, need = 0x9F, 2
	case c >= 0xE1 && c <= 0xEF:
		need = 2
	case c == 0xF0:
		lo, need = 0x90, 3
	case c == 0xF4:
		hi, need = 0x8F, 3
	case c >= 0xF1 && c <= 0xF3:
		need = 3
	default:
		return 1
	}
	n := 1
	for n <= need && n < len(p) && p[n] >= lo && p[n] <= hi {
		lo, hi = 0x80, 0xBF
		n++
	}
	return n
}

// pdfDocument is the slice of a PDF library the extractor needs.
// Pages are 1-based.
type pdfDocument interface {
	NumPage() int
	PageFragments(page int) ([]string, error)
}

// openPDF is replaced in tests.
var openPDF = openLedongthucPDF

// extractPDF joins each page's fragments with a single space and the pages
// with a blank line, then trims the result.
func extractPDF(data []byte) (string, error) {
	doc, err := openPDF(data)
	if err != nil {
		return "", err
	}
	pages := make([]string, 0, doc.NumPage())
	for i := 1; i <= doc.NumPage(); i++ {
		frags, err := doc.PageFragments(i)
		if err != nil {
			return "", err
		}
		pages = append(pages, strings.Join(frags, " "))
	}
	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}

// ─── ledongthuc/pdf adapter ──────────────────────────────────────────────────

type ledongthucDoc struct {
	r *pdf.Reader
}

func openLedongthucPDF(data []byte) (doc pdfDocument, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("open pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return ledongthucDoc{r: r}, nil
}

func (d ledongthucDoc) NumPage() int { return d.r.NumPage() }

// PageFragments returns one fragment per text row of the page.
func (d ledongthucDoc) PageFragments(n int) (frags []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags, err = nil, fmt.Errorf("page %d: %v", n, r)
		}
	}()
	p := d.r.Page(n)
	if p.V.IsNull() {
		return nil, nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", n, err)
	}
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			frags = append(frags, s)
		}
	}
	return frags, nil
}

// previewText cuts text to limit runes, marking the cut with an ellipsis.
func previewText(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "…"
}
