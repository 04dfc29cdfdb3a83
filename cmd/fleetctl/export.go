package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/export"
	repo "github.com/joseph-ayodele/fleet-tracker/internal/repository"
	"github.com/joseph-ayodele/fleet-tracker/internal/server"
	"github.com/joseph-ayodele/fleet-tracker/internal/utils"
)

var (
	exportStatus string
	exportFrom   string
	exportTo     string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export loads to an XLSX workbook",
	Long:  `Writes the loads matching the filters to a workbook. Dates are YYYY-MM-DD and filter on pickup date.`,
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "Only loads with this status")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Earliest pickup date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Latest pickup date (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default loads-<today>.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func exportFilter() (entity.LoadFilter, error) {
	var f entity.LoadFilter
	if s := strings.TrimSpace(exportStatus); s != "" {
		st, ok := constants.ParseLoadStatus(strings.ToLower(s))
		if !ok {
			return f, fmt.Errorf("unknown status %q", s)
		}
		f.Status = st
	}
	var err error
	if f.PickupFrom, err = utils.OptionalYMD(exportFrom); err != nil {
		return f, errors.New("--from must be YYYY-MM-DD")
	}
	if f.PickupTo, err = utils.OptionalYMD(exportTo); err != nil {
		return f, errors.New("--to must be YYYY-MM-DD")
	}
	return f, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	filter, err := exportFilter()
	if err != nil {
		return err
	}

	pool, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer server.CloseDB(pool, logger)

	svc := export.NewService(repo.NewLoadRepository(pool, logger), logger)
	b, err := svc.ExportLoadsXLSX(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("loads-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	}
	if err := os.WriteFile(out, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	cmd.Printf("wrote %s (%d bytes)\n", out, len(b))
	return nil
}
