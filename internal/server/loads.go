package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/fleet-tracker/constants"
	"github.com/joseph-ayodele/fleet-tracker/internal/common"
	"github.com/joseph-ayodele/fleet-tracker/internal/entity"
	"github.com/joseph-ayodele/fleet-tracker/internal/utils"
)

type LoadServer struct {
	loads  LoadReader
	logger *slog.Logger
}

func NewLoadServer(loads LoadReader, logger *slog.Logger) *LoadServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadServer{loads: loads, logger: logger}
}

func (s *LoadServer) List(w http.ResponseWriter, r *http.Request) {
	filter, err := loadFilterFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loads, err := s.loads.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if loads == nil {
		loads = []*entity.Load{}
	}
	writeJSON(w, http.StatusOK, loads)
}

func (s *LoadServer) Get(w http.ResponseWriter, r *http.Request) {
	load, err := s.loads.GetByLoadID(r.Context(), mux.Vars(r)["loadId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, load)
}

// loadFilterFromQuery reads status, from, to (YYYY-MM-DD) and limit.
func loadFilterFromQuery(r *http.Request) (entity.LoadFilter, error) {
	q := r.URL.Query()
	var f entity.LoadFilter

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		st, ok := constants.ParseLoadStatus(strings.ToLower(raw))
		if !ok {
			return f, common.InvalidInput(fmt.Sprintf("unknown status %q", raw))
		}
		f.Status = st
	}

	from, err := utils.OptionalYMD(q.Get("from"))
	if err != nil {
		return f, common.InvalidInput("from must be YYYY-MM-DD")
	}
	to, err := utils.OptionalYMD(q.Get("to"))
	if err != nil {
		return f, common.InvalidInput("to must be YYYY-MM-DD")
	}
	if from != nil && to != nil && to.Before(*from) {
		return f, common.InvalidInput("to must not be before from")
	}
	f.PickupFrom, f.PickupTo = from, to

	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, common.InvalidInput("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}
