package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/utils"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportServer struct {
	svc    Exporter
	logger *slog.Logger
}

func NewExportServer(svc Exporter, logger *slog.Logger) *ExportServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportServer{svc: svc, logger: logger}
}

// ExportLoads streams the filtered loads as a workbook.
// Only from -> from..today; only to -> beginning..to; none -> all.
func (s *ExportServer) ExportLoads(w http.ResponseWriter, r *http.Request) {
	filter, err := loadFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	xlsx, err := s.svc.ExportLoadsXLSX(r.Context(), filter)
	if err != nil {
		common.LoggerFromContext(r.Context(), s.logger).Error("export.xlsx.failed", "error", err)
		writeError(w, r, err)
		return
	}

	name := fmt.Sprintf("loads-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", utils.ContentDisposition(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(xlsx)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(xlsx)
}
