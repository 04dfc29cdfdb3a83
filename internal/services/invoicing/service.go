// Package invoicing renders, stores and records invoices for persisted loads.
package invoicing

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/events"
	"github.com/joseph-ayodele/fleet-tracker/internal/invoice"
	"github.com/joseph-ayodele/fleet-tracker/internal/repository"
	"github.com/joseph-ayodele/fleet-tracker/internal/storage"
)

const contentTypePDF = "application/pdf"

// Renderer is satisfied by *invoice.Renderer.
type Renderer interface {
	Render(ctx context.Context, load invoice.LoadDetails, opts invoice.Options) (*invoice.Document, error)
}

// Service handles invoice business logic.
type Service struct {
	loads    repository.LoadRepository
	invoices repository.InvoiceRepository
	renderer Renderer
	store    storage.Store
	events   events.Publisher
	logger   *slog.Logger
}

func NewService(
	loads repository.LoadRepository,
	invoices repository.InvoiceRepository,
	renderer Renderer,
	store storage.Store,
	pub events.Publisher,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		loads:    loads,
		invoices: invoices,
		renderer: renderer,
		store:    store,
		events:   pub,
		logger:   logger,
	}
}

// Result is a generated invoice: its record and the rendered document.
type Result struct {
	Record   *entity.Invoice
	Document *invoice.Document
}

// Generate renders an invoice for loadID, stores the PDF and records it on the load.
// Earlier invoices for the same load are kept.
func (s *Service) Generate(ctx context.Context, loadID string, opts invoice.Options) (*Result, error) {
	log := common.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	load, err := s.loads.GetByLoadID(ctx, loadID)
	if err != nil {
		return nil, err
	}

	doc, err := s.renderer.Render(ctx, LoadDetails(load), opts)
	if err != nil {
		return nil, err
	}

	location, err := s.store.Put(ctx, doc.FileName, contentTypePDF, doc.Bytes)
	if err != nil {
		log.Error("invoice.store.failed", "load_id", loadID, "file", doc.FileName, "error", err)
		return nil, common.NewRenderError("invoice could not be stored", err)
	}

	rec, err := s.invoices.Create(ctx, &entity.Invoice{
		LoadRef:  load.ID,
		LoadID:   load.LoadID,
		Number:   doc.Number,
		FileName: doc.FileName,
		Location: location,
		Total:    doc.Total.InexactFloat64(),
	})
	if err != nil {
		log.Error("invoice.record.failed", "load_id", loadID, "file", doc.FileName, "error", err)
		return nil, err
	}

	if err := s.events.Publish(ctx, load.LoadID, events.NewEvent(events.InvoiceGenerated, rec)); err != nil {
		log.Warn("invoice.event.failed", "load_id", loadID, "error", err)
	}

	log.Info("invoice.generate.ok",
		"load_id", loadID,
		"number", rec.Number,
		"location", location,
		"total", doc.Total.StringFixed(2),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &Result{Record: rec, Document: doc}, nil
}

// List returns the invoices recorded for loadID, newest first.
func (s *Service) List(ctx context.Context, loadID string) ([]*entity.Invoice, error) {
	if _, err := s.loads.GetByLoadID(ctx, loadID); err != nil {
		return nil, err
	}
	return s.invoices.ListByLoadID(ctx, loadID)
}

// LoadDetails maps a stored load onto renderer input. Zero dates render blank.
func LoadDetails(l *entity.Load) invoice.LoadDetails {
	d := invoice.LoadDetails{
		LoadID:           l.LoadID,
		PickupLocation:   l.PickupLocation,
		DeliveryLocation: l.DeliveryLocation,
		Rate:             l.Rate,
		Distance:         l.Distance,
	}
	if !l.PickupDate.IsZero() {
		t := l.PickupDate
		d.PickupDate = &t
	}
	if !l.DeliveryDate.IsZero() {
		t := l.DeliveryDate
		d.DeliveryDate = &t
	}
	return d
}
