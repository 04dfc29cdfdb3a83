package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/invoice"
	"github.com/joseph-ayodele/fleet-tracker/internal/services/invoicing"
)

var (
	invoiceOutDir  string
	invoiceOptions string
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice [load.json]",
	Short: "Render an invoice PDF for a load",
	Long: `Renders the invoice for a load described by a JSON file (same shape as the API's load objects).
Customer and additional charges can be supplied with --options, using the API's request body shape.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoice,
}

func init() {
	invoiceCmd.Flags().StringVarP(&invoiceOutDir, "out", "o", ".", "Directory to write the PDF into")
	invoiceCmd.Flags().StringVar(&invoiceOptions, "options", "", "JSON file with customer and additionalCharges")
	rootCmd.AddCommand(invoiceCmd)
}

type invoiceOptionsFile struct {
	Customer          *invoice.Customer `json:"customer"`
	AdditionalCharges []invoice.Charge  `json:"additionalCharges"`
}

func runInvoice(cmd *cobra.Command, args []string) error {
	var load entity.Load
	if err := readJSON(args[0], &load); err != nil {
		return err
	}

	var opts invoice.Options
	if invoiceOptions != "" {
		var f invoiceOptionsFile
		if err := readJSON(invoiceOptions, &f); err != nil {
			return err
		}
		opts = invoice.Options{Customer: f.Customer, Charges: f.AdditionalCharges}
	}

	r := invoice.NewRenderer(invoice.ConfigFrom(cfg.Invoice), logger)
	doc, err := r.Render(cmd.Context(), invoicing.LoadDetails(&load), opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(invoiceOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	dst := filepath.Join(invoiceOutDir, doc.FileName)
	if err := os.WriteFile(dst, doc.Bytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	cmd.Printf("%s  %s  total %s  (%d page(s))\n", doc.Number, dst, invoice.FormatMoney(doc.Total), doc.Pages)
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
