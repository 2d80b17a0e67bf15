package manager

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

type ErrResponse struct {
	HTTPStatusCode int
	Message        string
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrResponse{
		HTTPStatusCode: status,
		Message:        msg,
	})
}

// GetReportsHandler lists recent reports, newest first. The
// optional limit query parameter overrides Keep.
func (a *Api) GetReportsHandler(w http.ResponseWriter, r *http.Request) {
	limit := a.Keep
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	reports, err := a.Manager.Reports.Recent(limit)
	if err != nil {
		log.Printf("[manager.Api] [GetReportsHandler] Error listing reports: %v\n", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(reports)
}

func (a *Api) GetLatestReportHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := a.Manager.Reports.Recent(1)
	if err != nil {
		log.Printf("[manager.Api] [GetLatestReportHandler] Error listing reports: %v\n", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(reports) == 0 {
		writeError(w, http.StatusNotFound, "no cycle has run yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(reports[0])
}
