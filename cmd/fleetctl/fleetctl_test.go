package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"parse", "invoice", "db", "export"} {
		assert.True(t, names[want], want)
	}

	sub := map[string]bool{}
	for _, c := range dbCmd.Commands() {
		sub[c.Name()] = true
	}
	assert.True(t, sub["migrate"])
	assert.True(t, sub["health"])
}

func TestParseCmd_PrintsFields(t *testing.T) {
	t.Setenv("FLEET_CONFIG", "")
	path := filepath.Join(t.TempDir(), "rc.txt")
	require.NoError(t, os.WriteFile(path, []byte("Load ID: LD-9\nPickup: Chicago, IL\nDelivery: Dallas, TX\nRate: $2,500.00"), 0o644))

	out, err := run(t, "parse", path)
	require.NoError(t, err)

	var got struct {
		LoadData struct {
			LoadID string  `json:"loadId"`
			Rate   float64 `json:"rate"`
		} `json:"loadData"`
		Source struct {
			Type string `json:"type"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "LD-9", got.LoadData.LoadID)
	assert.Equal(t, 2500.0, got.LoadData.Rate)
	assert.Equal(t, "TXT", got.Source.Type)
}

func TestParseCmd_RequiresOneArg(t *testing.T) {
	_, err := run(t, "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestInvoiceCmd_WritesPDF(t *testing.T) {
	t.Setenv("FLEET_CONFIG", "")
	dir := t.TempDir()
	loadPath := filepath.Join(dir, "load.json")
	require.NoError(t, os.WriteFile(loadPath, []byte(`{
		"loadId": "LD-9",
		"pickupLocation": "Chicago, IL",
		"deliveryLocation": "Dallas, TX",
		"pickupDate": "2025-01-02T00:00:00Z",
		"rate": 2500
	}`), 0o644))
	optsPath := filepath.Join(dir, "opts.json")
	require.NoError(t, os.WriteFile(optsPath, []byte(`{"additionalCharges":[{"description":"Detention","amount":50}]}`), 0o644))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "invoice", loadPath, "-o", outDir, "--options", optsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "INV-LD-9")
	assert.Contains(t, out, "$2550.00")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "invoice-LD-9-"))
	b, err := os.ReadFile(filepath.Join(outDir, entries[0].Name()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))

	invoiceOptions = ""
	invoiceOutDir = "."
}

func TestDBMigrate_RequiresDSN(t *testing.T) {
	t.Setenv("FLEET_CONFIG", "")
	t.Setenv("DB_URL", "")
	_, err := run(t, "db", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_URL is required")
}

func TestExportFilter(t *testing.T) {
	defer func() { exportStatus, exportFrom, exportTo = "", "", "" }()

	exportStatus, exportFrom, exportTo = "Delivered", "2025-01-01", ""
	f, err := exportFilter()
	require.NoError(t, err)
	assert.Equal(t, "delivered", string(f.Status))
	require.NotNil(t, f.PickupFrom)
	assert.Nil(t, f.PickupTo)

	exportStatus = "lost"
	_, err = exportFilter()
	assert.Error(t, err)

	exportStatus, exportFrom = "", "01/01/2025"
	_, err = exportFilter()
	assert.Error(t, err)
}
