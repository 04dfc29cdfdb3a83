package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

var fixedNow = time.Date(2025, time.March, 7, 14, 30, 5, 123000000, time.UTC)

func testRenderer(compress bool) *Renderer {
	cfg := ConfigFrom(common.DefaultConfig().Invoice)
	cfg.Compress = compress
	return NewRenderer(cfg, nil, WithClock(func() time.Time { return fixedNow }))
}

func sampleLoad() LoadDetails {
	pickup := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)
	return LoadDetails{
		LoadID:           "LD-9",
		PickupLocation:   "Chicago, IL",
		DeliveryLocation: "Dallas, TX",
		PickupDate:       &pickup,
		Rate:             2500,
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBuildLines_TotalEqualsSumOfLines(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		charges []Charge
		want    string
	}{
		{name: "no charges", rate: 2500, want: "2500.00"},
		{name: "float drift", rate: 0.1, charges: []Charge{{"Fuel", 0.2}}, want: "0.30"},
		{name: "many small", rate: 1000.01, charges: []Charge{{"A", 0.01}, {"B", 0.01}, {"C", 0.01}}, want: "1000.04"},
		{name: "sub cent inputs round per line", rate: 100.005, charges: []Charge{{"Lumper", 50.004}}, want: "150.01"},
		{name: "zero rate", rate: 0, charges: []Charge{{"Detention", 75}}, want: "75.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, total := BuildLines(LoadDetails{LoadID: "X", Rate: tt.rate}, tt.charges)
			require.Len(t, lines, 1+len(tt.charges))

			sum := decimal.Zero
			for _, l := range lines {
				sum = sum.Add(l.Amount)
			}
			assert.True(t, total.Equal(sum))
			assert.Equal(t, tt.want, total.StringFixed(2))
		})
	}
}

func TestBuildLines_Order(t *testing.T) {
	lines, _ := BuildLines(LoadDetails{LoadID: "LD-9", Rate: 10}, []Charge{{"Detention", 1}, {"Lumper", 2}})
	assert.Equal(t, "Freight charges for Load LD-9", lines[0].Description)
	assert.Equal(t, "Detention", lines[1].Description)
	assert.Equal(t, "Lumper", lines[2].Description)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$2500.00", FormatMoney(decimal.NewFromInt(2500)))
	assert.Equal(t, "$1234.50", FormatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero))
	assert.Equal(t, "-$12.00", FormatMoney(decimal.NewFromInt(-12)))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "invoice-LD-9-2025-03-07T14-30-05-123Z.pdf", FileName("LD-9", fixedNow))
	assert.Equal(t, "invoice-a_b-2025-03-07T14-30-05-123Z.pdf", FileName("a/../b", fixedNow))
	assert.Equal(t, "invoice-load-2025-03-07T14-30-05-123Z.pdf", FileName("", fixedNow))
}

func TestRender_BaseFreightOnly(t *testing.T) {
	doc, err := testRenderer(false).Render(context.Background(), sampleLoad(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "INV-LD-9", doc.Number)
	assert.Equal(t, fixedNow, doc.IssuedAt)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "2500.00", doc.Total.StringFixed(2))
	assert.Equal(t, 1, doc.Pages)

	require.True(t, bytes.HasPrefix(doc.Bytes, []byte("%PDF-")))
	for _, want := range []string{
		"PWP Fleet Management",
		"(INVOICE)",
		"Invoice #: INV-LD-9",
		"Invoice Date: 3/7/2025",
		"Pickup: Chicago, IL",
		"Pickup Date: 3/4/2025",
		"Freight charges for Load LD-9",
		"$2500.00",
		"Payment Terms: Net 30 days",
	} {
		assert.Contains(t, string(doc.Bytes), want)
	}
	assert.NotContains(t, string(doc.Bytes), "Bill To:")
	assert.NotContains(t, string(doc.Bytes), "Distance:")
}

func TestRender_CustomerChargesAndDistance(t *testing.T) {
	load := sampleLoad()
	miles := 925.5
	load.Distance = &miles

	doc, err := testRenderer(false).Render(context.Background(), load, Options{
		Customer: &Customer{Address: "1 Dock St"},
		Charges:  []Charge{{"Detention", 150}, {"Lumper", 75.25}},
	})
	require.NoError(t, err)

	assert.Equal(t, "2725.25", doc.Total.StringFixed(2))
	out := string(doc.Bytes)
	for _, want := range []string{"Bill To:", "(Customer)", "1 Dock St", "Distance: 925.5 miles", "$150.00", "$75.25", "$2725.25"} {
		assert.Contains(t, out, want)
	}
	// The issuer contact line always carries an email; the customer line is its own text object.
	assert.NotContains(t, out, "(Email: ")

	doc, err = testRenderer(false).Render(context.Background(), load, Options{
		Customer: &Customer{Name: "Acme Freight", Email: "ap@acme.test"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Bytes), "(Email: ap@acme.test)")
}

func TestRender_WrapsLongDescriptions(t *testing.T) {
	desc := strings.TrimSpace(strings.Repeat("Detention at receiver while waiting on a door ", 6))
	doc, err := testRenderer(false).Render(context.Background(), sampleLoad(), Options{
		Charges: []Charge{{desc, 150}},
	})
	require.NoError(t, err)

	out := string(doc.Bytes)
	assert.NotContains(t, out, "("+desc+")")
	assert.Contains(t, out, "(Detention at receiver while waiting on a door")
	assert.Contains(t, out, "($150.00)")
	assert.Contains(t, out, "($2650.00)")
	assert.Equal(t, 1, doc.Pages)
}

func TestRender_Paginates(t *testing.T) {
	charges := make([]Charge, 80)
	for i := range charges {
		charges[i] = Charge{Description: fmt.Sprintf("Stop %d", i+1), Amount: 10}
	}
	doc, err := testRenderer(true).Render(context.Background(), sampleLoad(), Options{Charges: charges})
	require.NoError(t, err)
	assert.Greater(t, doc.Pages, 1)
	assert.Equal(t, "3300.00", doc.Total.StringFixed(2))
}

func TestRender_IdempotentApartFromTimestamp(t *testing.T) {
	r := testRenderer(true)
	opts := Options{Charges: []Charge{{"Fuel", 12.5}}}

	a, err := r.Render(context.Background(), sampleLoad(), opts)
	require.NoError(t, err)
	b, err := r.Render(context.Background(), sampleLoad(), opts)
	require.NoError(t, err)

	assert.Equal(t, a.Lines, b.Lines)
	assert.True(t, a.Total.Equal(b.Total))
	assert.Equal(t, a.FileName, b.FileName)
}

func TestRender_MissingFieldsRenderBlank(t *testing.T) {
	_, err := testRenderer(true).Render(context.Background(), LoadDetails{}, Options{Customer: &Customer{}})
	assert.NoError(t, err)
}

func TestRenderTo_WriterFailure(t *testing.T) {
	_, err := testRenderer(true).RenderTo(context.Background(), failingWriter{}, sampleLoad(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRender)
	assert.Equal(t, "could not generate invoice", common.PublicMessage(err))
}
