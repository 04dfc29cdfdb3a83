package ratecon

import (
	"regexp"
	"strings"
)

// LabelSet names the labels recognized in front of each field.
// Labels inside one slice are alternatives of a single pattern, so the leftmost
// occurrence in the text wins among them; the per-field fallback only runs when
// none of the labels match.
type LabelSet struct {
	LoadID       []string
	Pickup       []string
	Delivery     []string
	Rate         []string
	PickupDate   []string
	DeliveryDate []string
}

// DefaultLabels returns the built-in label set.
func DefaultLabels() LabelSet {
	return LabelSet{
		LoadID:       []string{"Load ID", "Load Number", "Reference"},
		Pickup:       []string{"Pickup", "Origin", "From"},
		Delivery:     []string{"Delivery", "Destination", "To", "Drop"},
		Rate:         []string{"Rate", "Amount", "Total", "Pay"},
		PickupDate:   []string{"Pickup Date", "Load Date"},
		DeliveryDate: []string{"Delivery Date", "Unload Date"},
	}
}

// Merge returns a copy of l with extra labels appended, skipping case-insensitive duplicates.
func (l LabelSet) Merge(extra LabelSet) LabelSet {
	return LabelSet{
		LoadID:       mergeLabels(l.LoadID, extra.LoadID),
		Pickup:       mergeLabels(l.Pickup, extra.Pickup),
		Delivery:     mergeLabels(l.Delivery, extra.Delivery),
		Rate:         mergeLabels(l.Rate, extra.Rate),
		PickupDate:   mergeLabels(l.PickupDate, extra.PickupDate),
		DeliveryDate: mergeLabels(l.DeliveryDate, extra.DeliveryDate),
	}
}

func mergeLabels(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, lbl := range append(append([]string{}, base...), extra...) {
		lbl = strings.TrimSpace(lbl)
		key := strings.ToLower(strings.Join(strings.Fields(lbl), " "))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, lbl)
	}
	return out
}

// labelAlternation turns ["Load ID", "Reference"] into (?:Load\s*ID|Reference).
// Whitespace inside a label matches any run of whitespace, including none.
func labelAlternation(labels []string) string {
	alts := make([]string, 0, len(labels))
	for _, lbl := range labels {
		words := strings.Fields(lbl)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s*`))
	}
	if len(alts) == 0 {
		return ""
	}
	return "(?:" + strings.Join(alts, "|") + ")"
}

// labeled compiles `<labels>:\s*(<value>)`, case-insensitive and multi-line.
// Returns nil for an empty label set.
func labeled(labels []string, value string) *regexp.Regexp {
	alt := labelAlternation(labels)
	if alt == "" {
		return nil
	}
	return regexp.MustCompile(`(?im)` + alt + `:\s*(` + value + `)`)
}
