package invoice

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

// Issuer is the company block printed at the top and the terms printed at the bottom.
type Issuer struct {
	Name    string
	Legal   string
	Address string
	Contact string
	Terms   []string
}

type Config struct {
	Issuer   Issuer
	Compress bool
}

// ConfigFrom maps application configuration onto the renderer.
func ConfigFrom(c common.InvoiceConfig) Config {
	return Config{
		Issuer: Issuer{
			Name:    c.IssuerName,
			Legal:   c.IssuerLegal,
			Address: c.IssuerAddress,
			Contact: c.IssuerContact,
			Terms:   c.PaymentTerms,
		},
		Compress: c.Compress,
	}
}

// Renderer is stateless apart from its configuration and may be shared.
type Renderer struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

type Option func(*Renderer)

// WithClock overrides the render timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

func NewRenderer(cfg Config, logger *slog.Logger, opts ...Option) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{cfg: cfg, now: time.Now, logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render produces the invoice and returns it with its PDF bytes.
func (r *Renderer) Render(ctx context.Context, load LoadDetails, opts Options) (*Document, error) {
	var buf bytes.Buffer
	doc, err := r.RenderTo(ctx, &buf, load, opts)
	if err != nil {
		return nil, err
	}
	doc.Bytes = buf.Bytes()
	return doc, nil
}

// RenderTo streams the PDF to w. Any failure to produce or write the stream
// is returned as an error matching common.ErrRender.
func (r *Renderer) RenderTo(ctx context.Context, w io.Writer, load LoadDetails, opts Options) (*Document, error) {
	log := common.LoggerFromContext(ctx, r.logger)
	start := time.Now()
	issued := r.now()

	lines, total := BuildLines(load, opts.Charges)
	doc := &Document{
		Number:   Number(load.LoadID),
		FileName: FileName(load.LoadID, issued),
		IssuedAt: issued,
		Lines:    lines,
		Total:    total,
	}

	pdf := r.layout(doc, load, opts.Customer)
	doc.Pages = pdf.PageCount()
	if err := pdf.Output(w); err != nil {
		log.Error("invoice.render.failed", "load_id", load.LoadID, "error", err)
		return nil, common.NewRenderError("invoice stream could not be completed", err)
	}

	log.Info("invoice.render.ok",
		"load_id", load.LoadID,
		"number", doc.Number,
		"lines", len(lines),
		"pages", doc.Pages,
		"total", total.StringFixed(2),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// Page geometry in points.
const (
	margin      = 50.0
	amountX     = 400.0
	amountWidth = 90.0
	ruleEnd     = 500.0
	lineHeight  = 15.0
)

type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (p page) text(size float64, style, s, align string) {
	p.pdf.SetFont("Helvetica", style, size)
	p.pdf.CellFormat(0, size+4, p.tr(s), "", 1, align, false, 0, "")
}

// row prints a description at the left margin and an amount right-aligned in
// the amount column. Long descriptions wrap inside their column and the amount
// stays on the first line.
func (p page) row(desc, amount string) {
	w := amountX - margin - 10
	lines := p.pdf.SplitLines([]byte(p.tr(desc)), w)
	if len(lines) == 0 {
		lines = [][]byte{nil}
	}
	height := float64(len(lines)) * lineHeight
	if _, h := p.pdf.GetPageSize(); p.pdf.GetY()+height > h-margin {
		p.pdf.AddPage()
	}

	y := p.pdf.GetY()
	for i, l := range lines {
		p.pdf.SetXY(margin, y+float64(i)*lineHeight)
		p.pdf.CellFormat(w, lineHeight, string(l), "", 0, "L", false, 0, "")
	}
	p.pdf.SetXY(amountX, y)
	p.pdf.CellFormat(amountWidth, lineHeight, p.tr(amount), "", 0, "R", false, 0, "")
	p.pdf.SetY(y + height)
}

func (r *Renderer) layout(doc *Document, load LoadDetails, customer *Customer) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetCompression(r.cfg.Compress)
	pdf.SetCreationDate(doc.IssuedAt)
	pdf.SetTitle("Invoice "+doc.Number, true)
	pdf.SetAuthor(r.cfg.Issuer.Name, true)
	pdf.SetCreator("fleet-tracker", true)
	pdf.AddPage()

	p := page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	is := r.cfg.Issuer

	p.text(20, "", is.Name, "C")
	for _, s := range []string{is.Legal, is.Address, is.Contact} {
		p.text(10, "", s, "C")
	}

	pdf.Ln(2 * lineHeight)
	p.text(16, "", "INVOICE", "C")
	pdf.Ln(lineHeight)

	p.text(12, "", "Invoice Date: "+formatDate(&doc.IssuedAt), "L")
	p.text(12, "", "Invoice #: "+doc.Number, "L")
	p.text(12, "", "Load ID: "+load.LoadID, "L")
	pdf.Ln(lineHeight)

	if customer != nil {
		name := customer.Name
		if name == "" {
			name = "Customer"
		}
		p.text(12, "", "Bill To:", "L")
		p.text(12, "", name, "L")
		if customer.Address != "" {
			p.text(12, "", customer.Address, "L")
		}
		if customer.Email != "" {
			p.text(12, "", "Email: "+customer.Email, "L")
		}
		pdf.Ln(lineHeight)
	}

	p.text(12, "", "Load Details:", "L")
	p.text(12, "", "Pickup: "+load.PickupLocation, "L")
	p.text(12, "", "Delivery: "+load.DeliveryLocation, "L")
	p.text(12, "", "Pickup Date: "+formatDate(load.PickupDate), "L")
	p.text(12, "", "Delivery Date: "+formatDate(load.DeliveryDate), "L")
	if load.Distance != nil && *load.Distance > 0 {
		p.text(12, "", "Distance: "+strconv.FormatFloat(*load.Distance, 'f', -1, 64)+" miles", "L")
	}
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "B", 12)
	p.row("Description", "Amount")
	pdf.SetFont("Helvetica", "", 12)
	for _, l := range doc.Lines {
		p.row(l.Description, FormatMoney(l.Amount))
	}

	pdf.Ln(lineHeight / 2)
	y := pdf.GetY()
	pdf.Line(margin, y, ruleEnd, y)
	pdf.Ln(lineHeight / 2)

	pdf.SetFont("Helvetica", "B", 12)
	p.row("Total", FormatMoney(doc.Total))

	pdf.Ln(2 * lineHeight)
	for _, t := range is.Terms {
		p.text(12, "", t, "L")
	}
	return pdf
}

// formatDate renders M/D/YYYY; nil or zero dates render blank.
func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("1/2/2006")
}
