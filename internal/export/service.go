package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/repository"
)

const sheet = "Loads"

// Service produces XLSX bytes for load exports.
type Service struct {
	loads  repository.LoadRepository
	logger *slog.Logger
}

func NewService(loads repository.LoadRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{loads: loads, logger: logger}
}

// ExportLoadsXLSX returns a workbook of the loads matching filter.
// Pickup bounds are normalized to whole UTC days; a from without a to runs through today.
func (s *Service) ExportLoadsXLSX(ctx context.Context, filter entity.LoadFilter) ([]byte, error) {
	start := time.Now()

	if filter.PickupFrom != nil {
		f := dayStart(*filter.PickupFrom)
		filter.PickupFrom = &f
		if filter.PickupTo == nil {
			t := dayEnd(time.Now().UTC())
			filter.PickupTo = &t
		}
	}
	if filter.PickupTo != nil {
		t := dayEnd(*filter.PickupTo)
		filter.PickupTo = &t
	}

	loads, err := s.loads.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}

	b, err := WriteLoads(loads)
	if err != nil {
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"status", string(filter.Status),
		"rows", len(loads),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

var headers = []string{
	"Load ID",
	"Pickup Location",
	"Delivery Location",
	"Pickup Date",
	"Delivery Date",
	"Rate",
	"Distance (mi)",
	"Status",
	"Invoiced",
}

// WriteLoads renders loads as a single-sheet workbook.
func WriteLoads(loads []*entity.Load) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00
	if err != nil {
		return nil, err
	}

	row := 2
	for _, l := range loads {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, l.LoadID)
		write(2, l.PickupLocation)
		write(3, l.DeliveryLocation)
		write(4, formatDate(l.PickupDate))
		write(5, formatDate(l.DeliveryDate))
		write(6, l.Rate)
		if l.Distance != nil {
			write(7, *l.Distance)
		} else {
			write(7, "")
		}
		write(8, string(l.Status))
		if l.InvoiceGenerated {
			write(9, "yes")
		} else {
			write(9, "no")
		}
		row++
	}
	if len(loads) > 0 {
		_ = f.SetCellStyle(sheet, "F2", fmt.Sprintf("F%d", row-1), money)
	}

	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "C", 28)
	_ = f.SetColWidth(sheet, "D", "E", 14)
	_ = f.SetColWidth(sheet, "F", "G", 12)
	_ = f.SetColWidth(sheet, "H", "I", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayEnd(t time.Time) time.Time {
	return dayStart(t).Add(24*time.Hour - time.Nanosecond)
}
