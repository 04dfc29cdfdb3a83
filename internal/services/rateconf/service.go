// Package rateconf turns uploaded rate confirmations into parsed fields and load records.
package rateconf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/decode"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/events"
	"github.com/joseph-ayodele/fleet-tracker/internal/ratecon"
	"github.com/joseph-ayodele/fleet-tracker/internal/repository"
)

// Decoder is satisfied by *decode.Dispatcher.
type Decoder interface {
	Decode(ctx context.Context, data []byte, hint decode.TypeHint) (decode.Result, error)
}

// Extractor is satisfied by *ratecon.Extractor.
type Extractor interface {
	Extract(text string) ratecon.Fields
}

// DefaultDeliveryOffset is added to the pickup time when a document has no delivery date.
const DefaultDeliveryOffset = 24 * time.Hour

// Service handles rate confirmation business logic.
type Service struct {
	decoder   Decoder
	extractor Extractor
	loads     repository.LoadRepository
	events    events.Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// NewService creates a new rate confirmation service. loads may be nil for
// parse-only use; pub may be nil when events are not wanted.
func NewService(dec Decoder, ext Extractor, loads repository.LoadRepository, pub events.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		decoder:   dec,
		extractor: ext,
		loads:     loads,
		events:    pub,
		now:       time.Now,
		logger:    logger,
	}
}

// LabelsFrom extends the built-in labels with the configured extras.
func LabelsFrom(c common.RateConConfig) ratecon.LabelSet {
	return ratecon.DefaultLabels().Merge(ratecon.LabelSet{
		LoadID:       c.LoadIDLabels,
		Pickup:       c.PickupLabels,
		Delivery:     c.DeliveryLabels,
		Rate:         c.RateLabels,
		PickupDate:   c.PickupDateLabels,
		DeliveryDate: c.DeliveryDateLabels,
	})
}

// NewExtractor builds the extractor described by c.
func NewExtractor(c common.RateConConfig) *ratecon.Extractor {
	return ratecon.New(LabelsFrom(c), ratecon.WithDayFirst(c.DayFirst))
}

// Parsed is the result of reading one document.
type Parsed struct {
	Fields  ratecon.Fields `json:"loadData"`
	Missing []string       `json:"missing,omitempty"`
	Source  SourceInfo     `json:"source"`
}

type SourceInfo struct {
	FileName string   `json:"fileName"`
	Type     string   `json:"type"`
	Method   string   `json:"method"`
	Pages    int      `json:"pages"`
	Warnings []string `json:"warnings,omitempty"`
}

// Parse decodes data (type inferred from filename) and extracts load fields.
func (s *Service) Parse(ctx context.Context, filename string, data []byte) (*Parsed, error) {
	log := common.LoggerFromContext(ctx, s.logger)

	res, err := s.decoder.Decode(ctx, data, decode.HintFromFilename(filename))
	if err != nil {
		log.Warn("ratecon.parse.decode_failed", "file", filename, "error", err)
		return nil, err
	}

	fields := s.extractor.Extract(res.Text)
	missing := fields.Missing()
	log.Info("ratecon.parse.ok",
		"file", filename,
		"source_type", res.SourceType,
		"method", res.Method,
		"load_id", fields.LoadID,
		"missing", missing,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return &Parsed{
		Fields:  fields,
		Missing: missing,
		Source: SourceInfo{
			FileName: filename,
			Type:     res.SourceType,
			Method:   res.Method,
			Pages:    res.Pages,
			Warnings: res.Warnings,
		},
	}, nil
}

// CreateLoad parses the document and stores a pending load from its fields.
// Missing dates default to now and now+24h.
func (s *Service) CreateLoad(ctx context.Context, filename string, data []byte) (*entity.Load, *Parsed, error) {
	if s.loads == nil {
		return nil, nil, common.NewAppError(common.CodeConfig, "load storage is not configured", nil)
	}
	parsed, err := s.Parse(ctx, filename, data)
	if err != nil {
		return nil, nil, err
	}

	load := LoadFromFields(parsed.Fields, s.now())
	if err := validateLoad(load); err != nil {
		return nil, parsed, err
	}
	created, err := s.loads.Create(ctx, load)
	if err != nil {
		return nil, parsed, err
	}

	log := common.LoggerFromContext(ctx, s.logger)
	log.Info("ratecon.load.created", "load_id", created.LoadID, "id", created.ID)
	if err := s.events.Publish(ctx, created.LoadID, events.NewEvent(events.LoadCreated, created)); err != nil {
		log.Warn("ratecon.load.event_failed", "load_id", created.LoadID, "error", err)
	}
	return created, parsed, nil
}

// LoadFromFields maps parsed fields onto a new pending load.
func LoadFromFields(f ratecon.Fields, now time.Time) *entity.Load {
	pickup := now
	if f.PickupDate != nil {
		pickup = *f.PickupDate
	}
	delivery := now.Add(DefaultDeliveryOffset)
	if f.DeliveryDate != nil {
		delivery = *f.DeliveryDate
	}
	return &entity.Load{
		LoadID:           f.LoadID,
		PickupLocation:   f.PickupLocation,
		DeliveryLocation: f.DeliveryLocation,
		PickupDate:       pickup,
		DeliveryDate:     delivery,
		Rate:             f.Rate,
		Status:           constants.LoadStatusPending,
	}
}

// maxRate is the largest rate the loads table stores (NUMERIC(12,2)).
const maxRate = 9999999999.99

func validateLoad(l *entity.Load) error {
	return common.NewValidator().
		Field("loadId", l.LoadID, common.Required, common.MaxLength(100)).
		Field("pickupLocation", l.PickupLocation, common.Required, common.MaxLength(500)).
		Field("deliveryLocation", l.DeliveryLocation, common.Required, common.MaxLength(500)).
		Field("rate", l.Rate, common.NonNegative, common.MaxValue(maxRate)).
		Field("distance", l.Distance, common.NonNegative).
		Error()
}

// ProcessFile creates a load from a file on disk. Used by the inbox queue.
func (s *Service) ProcessFile(ctx context.Context, path string) error {
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return common.InvalidInput(fmt.Sprintf("unsupported file type %q", filepath.Ext(path)))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	_, _, err = s.CreateLoad(ctx, filepath.Base(path), data)
	return err
}
