package server

import (
	"encoding/json"
	"net/http"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status and public message for err's kind.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := common.HTTPStatus(err)
	log := common.LoggerFromContext(r.Context(), nil)
	if status >= http.StatusInternalServerError {
		log.Error("http.request.failed", "path", r.URL.Path, "error", err)
	} else {
		log.Warn("http.request.rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: common.PublicMessage(err)})
}
