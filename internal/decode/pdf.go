package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

var errNoPDFHeader = errors.New("missing %PDF- header")

func (d *Dispatcher) decodePDF(ctx context.Context, data []byte) (Result, error) {
	res := Result{SourceType: constants.PDF, Method: MethodPDFText}

	text, pages, warns, err := readPDF(data, d.cfg.MaxPages)
	res.Warnings = append(res.Warnings, warns...)
	if err == nil && strings.TrimSpace(text) != "" {
		res.Text, res.Pages = text, pages
		return res, nil
	}

	if d.cfg.Pdftotext == "" {
		if err != nil {
			return res, common.NewDecodeError("pdf could not be decoded", err)
		}
		// Readable but no text layer (scanned page); the extractor degrades to defaults.
		res.Pages = pages
		res.Warnings = append(res.Warnings, "pdf has no text layer")
		return res, nil
	}

	ftext, fpages, fwarns, ferr := d.pdftotext(ctx, data)
	res.Warnings = append(res.Warnings, fwarns...)
	if ferr != nil {
		if err != nil {
			return res, common.NewDecodeError("pdf could not be decoded", errors.Join(err, ferr))
		}
		res.Pages = pages
		res.Warnings = append(res.Warnings, "pdftotext fallback failed: "+ferr.Error())
		return res, nil
	}
	if err != nil {
		res.Warnings = append(res.Warnings, "built-in reader failed: "+err.Error())
	}
	res.Text, res.Pages, res.Method = ftext, fpages, MethodPdftotext
	return res, nil
}

// readPDF concatenates the text of every page in order, one line per text row. The reader panics
// on some malformed inputs, so panics are turned into errors.
func readPDF(data []byte, maxPages int) (text string, pages int, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages = "", 0
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	if !bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("%PDF-")) {
		return "", 0, nil, errNoPDFHeader
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, nil, fmt.Errorf("open pdf: %w", err)
	}

	pages = r.NumPage()
	if maxPages > 0 && pages > maxPages {
		warnings = append(warnings, fmt.Sprintf("only the first %d of %d pages were read", maxPages, pages))
		pages = maxPages
	}

	var b strings.Builder
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			warnings = append(warnings, fmt.Sprintf("page %d is empty", i))
			continue
		}
		txt, perr := pageText(p)
		if perr != nil {
			warnings = append(warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(txt)
	}
	return b.String(), pages, warnings, nil
}

// pdftotext writes data to a temp file and runs
// pdftotext -layout -enc UTF-8 -eol unix <file> -
func (d *Dispatcher) pdftotext(ctx context.Context, data []byte) (text string, pages int, warnings []string, err error) {
	f, err := os.CreateTemp("", "fleet-ratecon-*.pdf")
	if err != nil {
		return "", 0, nil, err
	}
	path := f.Name()
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			d.logger.Warn("failed to remove temp file", "path", path, "error", rmErr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", 0, nil, err
	}
	if err := f.Close(); err != nil {
		return "", 0, nil, err
	}

	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if d.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", d.cfg.MaxPages))
	}
	args = append(args, path, "-")

	out, errb, err := d.runner.Run(ctx, d.cfg.Pdftotext, args...)
	if err != nil {
		if s := strings.TrimSpace(string(errb)); s != "" {
			warnings = append(warnings, s)
		}
		return "", 0, warnings, fmt.Errorf("pdftotext: %w", err)
	}
	// pdftotext separates pages with a form feed.
	text = strings.TrimRight(string(out), "\f")
	pages = 1 + strings.Count(text, "\f")
	return strings.ReplaceAll(text, "\f", "\n"), pages, warnings, nil
}

// pageText rebuilds the lines of a page from its positioned glyphs, in content
// stream order. A baseline change starts a new line and a horizontal jump away
// from the previous glyph becomes a space.
func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%v", r)
		}
	}()

	var b strings.Builder
	var prev pdf.Text
	started := false
	for _, g := range p.Content().Text {
		if g.S == "" || g.S == "\n" {
			continue
		}
		if started {
			tol := math.Max(prev.FontSize/2, 1)
			gap := g.X - (prev.X + prev.W)
			switch {
			case math.Abs(g.Y-prev.Y) > tol:
				b.WriteByte('\n')
			case math.Abs(gap) > tol/2 && prev.S != " " && g.S != " ":
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
		prev, started = g, true
	}

	lines := strings.Split(b.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n"), nil
}
