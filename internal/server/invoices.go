package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/invoice"
	"github.com/joseph-ayodele/fleet-tracker/internal/utils"
)

const maxInvoiceBody = 256 << 10

const invoiceRequestSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "customer": {
      "type": ["object", "null"],
      "additionalProperties": false,
      "properties": {
        "name":    {"type": "string", "maxLength": 200},
        "address": {"type": "string", "maxLength": 500},
        "email":   {"type": "string", "maxLength": 254}
      }
    },
    "additionalCharges": {
      "type": ["array", "null"],
      "maxItems": 200,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["description", "amount"],
        "properties": {
          "description": {"type": "string", "minLength": 1, "maxLength": 200},
          "amount":      {"type": "number"}
        }
      }
    }
  }
}`

var invoiceSchema = mustCompileSchema("invoice-request.json", invoiceRequestSchema)

func mustCompileSchema(name, src string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

type invoiceRequest struct {
	Customer          *invoice.Customer `json:"customer"`
	AdditionalCharges []invoice.Charge  `json:"additionalCharges"`
}

type InvoiceServer struct {
	svc    InvoiceService
	logger *slog.Logger
}

func NewInvoiceServer(svc InvoiceService, logger *slog.Logger) *InvoiceServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceServer{svc: svc, logger: logger}
}

// Download renders the default invoice (freight charge only) for a load.
func (s *InvoiceServer) Download(w http.ResponseWriter, r *http.Request) {
	s.generate(w, r, invoice.Options{})
}

// Generate renders an invoice with the optional customer block and extra charges.
func (s *InvoiceServer) Generate(w http.ResponseWriter, r *http.Request) {
	opts, err := decodeInvoiceRequest(http.MaxBytesReader(w, r.Body, maxInvoiceBody))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.generate(w, r, opts)
}

func (s *InvoiceServer) generate(w http.ResponseWriter, r *http.Request, opts invoice.Options) {
	loadID := mux.Vars(r)["loadId"]
	res, err := s.svc.Generate(r.Context(), loadID, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc := res.Document
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", utils.ContentDisposition(doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.Header().Set("X-Invoice-Number", doc.Number)
	w.Header().Set("X-Invoice-Total", doc.Total.StringFixed(2))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Bytes); err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Warn("invoice.download.aborted", "load_id", loadID, "error", err)
	}
}

// List returns the invoice records for a load, newest first.
func (s *InvoiceServer) List(w http.ResponseWriter, r *http.Request) {
	recs, err := s.svc.List(r.Context(), mux.Vars(r)["loadId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*entity.Invoice{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// decodeInvoiceRequest validates body against the request schema. An empty body means defaults.
func decodeInvoiceRequest(body io.Reader) (invoice.Options, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return invoice.Options{}, common.InvalidInput("request body too large")
		}
		return invoice.Options{}, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return invoice.Options{}, nil
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return invoice.Options{}, common.InvalidInput("request body must be valid JSON")
	}
	if err := invoiceSchema.Validate(doc); err != nil {
		return invoice.Options{}, common.NewKindError(common.CodeInvalid,
			"invalid invoice request: "+schemaMessage(err), common.ErrValidation, err)
	}

	var req invoiceRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return invoice.Options{}, common.InvalidInput("request body must be valid JSON")
	}

	v := common.NewValidator()
	if req.Customer != nil {
		v.Field("customer.email", req.Customer.Email, common.Email)
	}
	if err := v.Error(); err != nil {
		return invoice.Options{}, err
	}
	return invoice.Options{Customer: req.Customer, Charges: req.AdditionalCharges}, nil
}

// schemaMessage flattens a schema failure to "location: message" leaves.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var msgs []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			msgs = append(msgs, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(msgs, "; ")
}
