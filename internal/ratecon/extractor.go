// Package ratecon turns the text of a rate confirmation into load fields.
//
// Extraction is best effort and never fails: every field falls back to its
// default ("N/A", 0 or no date) when nothing in the text matches.
package ratecon

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is the value of a string field that was not found.
const NotAvailable = "N/A"

// Value patterns. Inner groups must stay non-capturing: group 1 is the field.
const (
	tokenValue = `[A-Za-z0-9\-_]+`
	// Text up to the next comma or line break. An upper-case ", ST" state code
	// (optionally followed by a ZIP) that ends the line belongs to the location.
	// Needs the m flag.
	locationValue = `[^,\n\r]+(?:,[ \t]*(?-i:[A-Z]{2})(?:[ \t]+\d{5}(?:-\d{4})?)?[ \t\r]*$)?`
	amountValue   = `[\d,]+(?:\.\d{2})?`
	dateValue     = `\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})\b`
)

var (
	reFallbackLoadID   = regexp.MustCompile(`(?i)Load\s*(` + tokenValue + `)`)
	reFallbackPickup   = regexp.MustCompile(`(?im)Pick\s*up\s*at:\s*(` + locationValue + `)`)
	reFallbackDelivery = regexp.MustCompile(`(?im)Deliver\s*to:\s*(` + locationValue + `)`)
	reFallbackRate     = regexp.MustCompile(`\$\s*(` + amountValue + `)`)
	reDateParts        = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})$`)
)

// Fields is the structured result of one extraction. Nil dates mean "not found".
type Fields struct {
	LoadID           string     `json:"loadId"`
	PickupLocation   string     `json:"pickupLocation"`
	DeliveryLocation string     `json:"deliveryLocation"`
	Rate             float64    `json:"rate"`
	PickupDate       *time.Time `json:"pickupDate,omitempty"`
	DeliveryDate     *time.Time `json:"deliveryDate,omitempty"`
}

// Missing lists the JSON names of fields still holding their default value.
func (f Fields) Missing() []string {
	var out []string
	if f.LoadID == NotAvailable {
		out = append(out, "loadId")
	}
	if f.PickupLocation == NotAvailable {
		out = append(out, "pickupLocation")
	}
	if f.DeliveryLocation == NotAvailable {
		out = append(out, "deliveryLocation")
	}
	if f.Rate == 0 {
		out = append(out, "rate")
	}
	if f.PickupDate == nil {
		out = append(out, "pickupDate")
	}
	if f.DeliveryDate == nil {
		out = append(out, "deliveryDate")
	}
	return out
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDayFirst reads 03/04/2025 as 3 April instead of March 4.
func WithDayFirst(dayFirst bool) Option {
	return func(e *Extractor) { e.dayFirst = dayFirst }
}

// Extractor holds compiled, ordered patterns per field. It is immutable and safe for concurrent use.
type Extractor struct {
	loadID       []*regexp.Regexp
	pickup       []*regexp.Regexp
	delivery     []*regexp.Regexp
	rate         []*regexp.Regexp
	pickupDate   []*regexp.Regexp
	deliveryDate []*regexp.Regexp
	dayFirst     bool
}

// New compiles an Extractor for the given labels. The labeled pattern of each
// field is tried before its fallback.
func New(labels LabelSet, opts ...Option) *Extractor {
	e := &Extractor{
		loadID:       ordered(labeled(labels.LoadID, tokenValue), reFallbackLoadID),
		pickup:       ordered(labeled(labels.Pickup, locationValue), reFallbackPickup),
		delivery:     ordered(labeled(labels.Delivery, locationValue), reFallbackDelivery),
		rate:         ordered(labeled(labels.Rate, `\$?`+amountValue), reFallbackRate),
		pickupDate:   ordered(labeled(labels.PickupDate, dateValue)),
		deliveryDate: ordered(labeled(labels.DeliveryDate, dateValue)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultExtractor = New(DefaultLabels())

// Extract runs the default extractor over text.
func Extract(text string) Fields {
	return defaultExtractor.Extract(text)
}

// Extract produces best-effort fields from unstructured text.
func (e *Extractor) Extract(text string) Fields {
	f := Fields{
		LoadID:           NotAvailable,
		PickupLocation:   NotAvailable,
		DeliveryLocation: NotAvailable,
	}
	if text == "" {
		return f
	}

	if v, ok := firstMatch(e.loadID, text); ok && v != "" {
		f.LoadID = v
	}
	if v, ok := firstMatch(e.pickup, text); ok && v != "" {
		f.PickupLocation = v
	}
	if v, ok := firstMatch(e.delivery, text); ok && v != "" {
		f.DeliveryLocation = v
	}
	if v, ok := firstMatch(e.rate, text); ok {
		f.Rate = ParseAmount(v)
	}
	if v, ok := firstMatch(e.pickupDate, text); ok {
		f.PickupDate = parseDate(v, e.dayFirst)
	}
	if v, ok := firstMatch(e.deliveryDate, text); ok {
		f.DeliveryDate = parseDate(v, e.dayFirst)
	}
	return f
}

// ParseAmount strips thousands separators and converts to a non-negative number.
// Anything unparsable is 0.
func ParseAmount(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func ordered(res ...*regexp.Regexp) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(res))
	for _, re := range res {
		if re != nil {
			out = append(out, re)
		}
	}
	return out
}

// firstMatch returns the trimmed group 1 of the first pattern that matches.
func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// parseDate reads a numeric date token. Two-digit years follow the usual
// pivot: 00-49 is 20xx, 50-99 is 19xx. Impossible dates yield nil.
func parseDate(s string, dayFirst bool) *time.Time {
	m := reDateParts.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}

	month, day := a, b
	if dayFirst {
		month, day = b, a
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return nil
	}
	return &t
}
