package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vasilii314/batcher/job"
)

type ErrResponse struct {
	HTTPStatusCode int
	Message        string
}

type NeighborsResponse struct {
	Neighbors []string `json:"neighbors"`
}

type PlayerResponse struct {
	Skill int `json:"skill"`
}

type CostResponse struct {
	CostPerThread float64 `json:"costPerThread"`
}

type GrowthResponse struct {
	Threads float64 `json:"threads"`
}

// statusFor maps runtime errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoAdmin):
		return http.StatusForbidden
	case errors.Is(err, ErrInsufficientRam):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidJob), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrResponse{
		HTTPStatusCode: status,
		Message:        msg,
	})
}

func (a *Api) GetNeighborsHandler(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	neighbors, err := a.Runtime.Neighbors(r.Context(), host)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, NeighborsResponse{Neighbors: neighbors})
}

func (a *Api) GetServerHandler(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	n, err := a.Runtime.Server(r.Context(), host)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *Api) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	skill, err := a.Runtime.PlayerSkill(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PlayerResponse{Skill: skill})
}

func (a *Api) GetCostHandler(w http.ResponseWriter, r *http.Request) {
	cost, err := a.Runtime.CostPerThread(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, CostResponse{CostPerThread: cost})
}

func (a *Api) GetGrowthHandler(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	multiplier, err := strconv.ParseFloat(r.URL.Query().Get("multiplier"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid multiplier: %v", err))
		return
	}
	threads, err := a.Runtime.GrowthThreads(r.Context(), host, multiplier)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, GrowthResponse{Threads: threads})
}

func (a *Api) SpawnHandler(w http.ResponseWriter, r *http.Request) {
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields()

	j := job.Job{}
	err := d.Decode(&j)
	if err != nil {
		msg := fmt.Sprintf("Error unmarshalling body: %v", err)
		log.Printf("[bridge.Api] [SpawnHandler] %s\n", msg)
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	err = a.Runtime.Spawn(r.Context(), j)
	if err != nil {
		log.Printf("[bridge.Api] [SpawnHandler] Rejected job %v: %v\n", j.ID, err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

func (a *Api) KillAllHandler(w http.ResponseWriter, r *http.Request) {
	host := chi.URLParam(r, "host")
	err := a.Runtime.KillAll(r.Context(), host)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) GetStatsHandler(w http.ResponseWriter, r *http.Request) {
	sr, ok := a.Runtime.(StatsReporter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "runtime does not report stats")
		return
	}
	stats, err := sr.Stats(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
