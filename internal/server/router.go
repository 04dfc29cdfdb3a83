// Package server exposes the fleet API over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/invoice"
	"github.com/joseph-ayodele/fleet-tracker/internal/services/invoicing"
	"github.com/joseph-ayodele/fleet-tracker/internal/services/rateconf"
)

const requestIDHeader = "X-Request-ID"

// RateConService is satisfied by *rateconf.Service.
type RateConService interface {
	Parse(ctx context.Context, filename string, data []byte) (*rateconf.Parsed, error)
	CreateLoad(ctx context.Context, filename string, data []byte) (*entity.Load, *rateconf.Parsed, error)
}

// LoadReader is the read side of repository.LoadRepository.
type LoadReader interface {
	GetByLoadID(ctx context.Context, loadID string) (*entity.Load, error)
	List(ctx context.Context, filter entity.LoadFilter) ([]*entity.Load, error)
}

// InvoiceService is satisfied by *invoicing.Service.
type InvoiceService interface {
	Generate(ctx context.Context, loadID string, opts invoice.Options) (*invoicing.Result, error)
	List(ctx context.Context, loadID string) ([]*entity.Invoice, error)
}

// Exporter is satisfied by *export.Service.
type Exporter interface {
	ExportLoadsXLSX(ctx context.Context, filter entity.LoadFilter) ([]byte, error)
}

type Deps struct {
	RateCon        RateConService
	Loads          LoadReader
	Invoices       InvoiceService
	Export         Exporter
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// NewRouter wires every API route.
func NewRouter(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}

	rc := NewRateConServer(d.RateCon, d.MaxUploadBytes, logger)
	ls := NewLoadServer(d.Loads, logger)
	is := NewInvoiceServer(d.Invoices, logger)
	es := NewExportServer(d.Export, logger)

	r := mux.NewRouter()
	r.Use(requestID(logger), accessLog)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("", apiStatus).Methods(http.MethodGet)

	api.HandleFunc("/rate-confirmation/upload", rc.Upload).Methods(http.MethodPost)
	api.HandleFunc("/rate-confirmation/create-load", rc.CreateLoad).Methods(http.MethodPost)

	// export.xlsx must precede {loadId}
	api.HandleFunc("/loads/export.xlsx", es.ExportLoads).Methods(http.MethodGet)
	api.HandleFunc("/loads", ls.List).Methods(http.MethodGet)
	api.HandleFunc("/loads/{loadId}", ls.Get).Methods(http.MethodGet)

	api.HandleFunc("/invoices/load/{loadId}", is.List).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{loadId}", is.Download).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{loadId}", is.Generate).Methods(http.MethodPost)

	return r
}

func apiStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Fleet management API is running"})
}

// requestID honors an incoming X-Request-ID or mints one, and scopes the logger to it.
func requestID(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			ctx := common.WithRequestID(r.Context(), id)
			ctx = common.WithLogger(ctx, logger.With("request_id", id))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		log := common.LoggerFromContext(r.Context(), nil)
		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.Log(r.Context(), level, "http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
