// Package decode turns uploaded rate confirmation bytes into plain text.
package decode

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

// TypeHint declares the format of a blob: constants.PDF or constants.TXT.
type TypeHint string

const (
	HintPDF  TypeHint = constants.PDF
	HintText TypeHint = constants.TXT
)

// HintFromFilename infers the hint from an extension. Unknown extensions read as text.
func HintFromFilename(name string) TypeHint {
	return TypeHint(constants.MapExtToFormat(filepath.Ext(name)))
}

// ParseHint accepts "pdf", "txt", "text" in any case and falls back to text.
func ParseHint(s string) TypeHint {
	return TypeHint(constants.MapExtToFormat(strings.TrimSpace(s)))
}

// Decoding methods reported in Result.Method.
const (
	MethodText      = "text"
	MethodPDFText   = "pdf-text"
	MethodPdftotext = "pdftotext"
)

type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.TXT
	Method     string
	Duration   time.Duration
	Warnings   []string
}

type Config struct {
	// Pdftotext is the binary used when the built-in reader fails or finds no
	// text layer. Empty disables the fallback.
	Pdftotext string
	MaxPages  int // 0 = no limit
}

// ConfigFrom maps application configuration onto the dispatcher.
func ConfigFrom(c common.DecodeConfig) Config {
	return Config{Pdftotext: c.Pdftotext, MaxPages: c.MaxPages}
}

type Dispatcher struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Dispatcher)

// WithRunner replaces the command runner used for the pdftotext fallback.
func WithRunner(r Runner) Option {
	return func(d *Dispatcher) { d.runner = r }
}

func NewDispatcher(cfg Config, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{cfg: cfg, runner: execRunner{}, logger: logger}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode routes data to the decoder for hint. Plain text never fails; page-based
// input that cannot be read returns an error matching common.ErrDecode.
func (d *Dispatcher) Decode(ctx context.Context, data []byte, hint TypeHint) (Result, error) {
	start := time.Now()
	log := common.LoggerFromContext(ctx, d.logger)

	switch hint {
	case HintPDF:
		res, err := d.decodePDF(ctx, data)
		res.Duration = time.Since(start)
		if err != nil {
			log.Warn("decode.pdf.failed", "bytes", len(data), "duration_ms", res.Duration.Milliseconds(), "error", err)
			return res, err
		}
		log.Debug("decode.pdf.ok",
			"bytes", len(data),
			"pages", res.Pages,
			"method", res.Method,
			"chars", len(res.Text),
			"duration_ms", res.Duration.Milliseconds(),
		)
		return res, nil
	default:
		res := decodeText(data)
		res.Duration = time.Since(start)
		log.Debug("decode.text.ok", "bytes", len(data), "chars", len(res.Text))
		return res, nil
	}
}

// DecodeFile is Decode with the hint inferred from name.
func (d *Dispatcher) DecodeFile(ctx context.Context, name string, data []byte) (Result, error) {
	return d.Decode(ctx, data, HintFromFilename(name))
}

func decodeText(data []byte) Result {
	return Result{
		Text:       strings.ToValidUTF8(string(data), "�"),
		Pages:      1,
		SourceType: constants.TXT,
		Method:     MethodText,
	}
}
