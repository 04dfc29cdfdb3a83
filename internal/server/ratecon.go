package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

const uploadField = "rateConfirmation"

// multipart headers and boundaries on top of the file itself
const formOverhead = 64 << 10

type RateConServer struct {
	svc      RateConService
	maxBytes int64
	logger   *slog.Logger
}

func NewRateConServer(svc RateConService, maxBytes int64, logger *slog.Logger) *RateConServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateConServer{svc: svc, maxBytes: maxBytes, logger: logger}
}

// Upload parses a rate confirmation and returns the extracted fields.
func (s *RateConServer) Upload(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	parsed, err := s.svc.Parse(r.Context(), name, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message  string `json:"message"`
		LoadData any    `json:"loadData"`
		Missing  any    `json:"missing,omitempty"`
		Source   any    `json:"source"`
	}{
		Message:  "Rate confirmation parsed successfully",
		LoadData: parsed.Fields,
		Missing:  parsed.Missing,
		Source:   parsed.Source,
	})
}

// CreateLoad parses a rate confirmation and stores a pending load from it.
func (s *RateConServer) CreateLoad(w http.ResponseWriter, r *http.Request) {
	name, data, err := s.readUpload(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	load, _, err := s.svc.CreateLoad(r.Context(), name, data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		Load    any    `json:"load"`
	}{
		Message: "Load created from rate confirmation",
		Load:    load,
	})
}

// readUpload returns the name and bytes of the rateConfirmation part.
func (s *RateConServer) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes+formOverhead)
	if err := r.ParseMultipartForm(s.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, common.InvalidInput(fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
		}
		return "", nil, common.InvalidInput("expected a multipart/form-data upload")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, hdr, err := r.FormFile(uploadField)
	if err != nil {
		return "", nil, common.InvalidInput("No file uploaded")
	}
	defer f.Close()

	if hdr.Size > s.maxBytes {
		return "", nil, common.InvalidInput(fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
	}
	if !acceptedUpload(hdr.Filename, hdr.Header.Get("Content-Type")) {
		return "", nil, common.InvalidInput("Only PDF and text files are allowed")
	}

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", nil, common.InvalidInput(fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
	}
	common.LoggerFromContext(r.Context(), s.logger).Debug("ratecon.upload.received",
		"file", hdr.Filename, "bytes", len(data))
	return filepath.Base(hdr.Filename), data, nil
}

// acceptedUpload allows PDF or plain text by declared type, falling back to the extension.
func acceptedUpload(filename, contentType string) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/pdf", "text/plain":
			return true
		case "application/octet-stream":
		default:
			return false
		}
	}
	return constants.IsAllowedExt(filepath.Ext(filename))
}
