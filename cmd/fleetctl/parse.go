package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fleet-tracker/internal/decode"
	"github.com/joseph-ayodele/fleet-tracker/internal/services/rateconf"
)

var parseDayFirst bool

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract load fields from a rate confirmation",
	Long:  `Decodes a PDF or text rate confirmation and prints the extracted fields as JSON. Nothing is stored.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&parseDayFirst, "day-first", false, "Read numeric dates as day/month/year")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	rc := cfg.RateCon
	if cmd.Flags().Changed("day-first") {
		rc.DayFirst = parseDayFirst
	}
	dec := decode.NewDispatcher(decode.ConfigFrom(cfg.Decode), logger)
	svc := rateconf.NewService(dec, rateconf.NewExtractor(rc), nil, nil, logger)

	parsed, err := svc.Parse(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(parsed)
}
