// Package invoice renders freight invoices for a load as PDF documents.
package invoice

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Customer is the optional "Bill To" block.
type Customer struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Email   string `json:"email"`
}

// Charge is an additional line item after the freight charge.
type Charge struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type Options struct {
	Customer *Customer
	Charges  []Charge
}

// LoadDetails are the persisted load fields an invoice is built from.
type LoadDetails struct {
	LoadID           string
	PickupLocation   string
	DeliveryLocation string
	PickupDate       *time.Time
	DeliveryDate     *time.Time
	Rate             float64
	Distance         *float64
}

// Line is one row of the charges table, already rounded to cents.
type Line struct {
	Description string
	Amount      decimal.Decimal
}

// Document is a rendered invoice. Bytes is nil when the PDF was streamed with RenderTo.
type Document struct {
	Number   string
	FileName string
	IssuedAt time.Time
	Lines    []Line
	Total    decimal.Decimal
	Pages    int
	Bytes    []byte
}

// Number returns the invoice number for a load.
func Number(loadID string) string {
	return "INV-" + loadID
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// FileName returns invoice-<loadId>-<timestamp>.pdf with the load ID made path safe.
func FileName(loadID string, at time.Time) string {
	id := unsafeFileChars.ReplaceAllString(loadID, "_")
	if id == "" {
		id = "load"
	}
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(at.UTC().Format("2006-01-02T15:04:05.000Z"))
	return "invoice-" + id + "-" + ts + ".pdf"
}

// BuildLines returns the freight line, one line per charge, and their total.
// Every amount is rounded to cents before summing so the total equals the sum
// of the displayed lines.
func BuildLines(load LoadDetails, charges []Charge) ([]Line, decimal.Decimal) {
	lines := make([]Line, 0, 1+len(charges))
	lines = append(lines, Line{
		Description: "Freight charges for Load " + load.LoadID,
		Amount:      cents(load.Rate),
	})
	for _, c := range charges {
		lines = append(lines, Line{Description: c.Description, Amount: cents(c.Amount)})
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return lines, total
}

// cents rounds to two places; NaN and infinities count as zero.
func cents(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Round(2)
}

// FormatMoney renders $1234.50, or -$12.00 for negative amounts.
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
