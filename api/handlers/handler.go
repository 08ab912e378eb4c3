package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/models"
	"github.com/jusunglee/mrt-go/internal/search"
	"github.com/jusunglee/mrt-go/internal/stationcode"
	"github.com/jusunglee/mrt-go/internal/store"
	"github.com/jusunglee/mrt-go/pkg/router"
)

const (
	defaultNearest = 5
	maxBatch       = 100
)

// Handler handles HTTP requests
type Handler struct {
	client router.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client router.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/networks", h.handleNetworks).Methods("GET")
	r.HandleFunc("/networks/{network}", h.handleNetwork).Methods("GET")
	r.HandleFunc("/networks/{network}/stations", h.handleStations).Methods("GET")
	r.HandleFunc("/networks/{network}/by-location", h.handleByLocation).Methods("GET")
	r.HandleFunc("/networks/{network}/route", h.handleRoute).Methods("GET")
	r.HandleFunc("/networks/{network}/routes", h.handleBatch).Methods("POST")
}

// Response wraps API responses
type Response struct {
	Data    interface{} `json:"data"`
	Updated string      `json:"updated,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// BatchRequest is the body of a batch route request
type BatchRequest struct {
	Queries []models.RouteQuery `json:"queries"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "mrt-go",
		"readme": "Fastest itineraries over staged rail networks",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleNetworks(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.client.GetNetworks())
}

func (h *Handler) handleNetwork(w http.ResponseWriter, r *http.Request) {
	info, err := h.client.GetNetworkInfo(mux.Vars(r)["network"])
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeData(w, info)
}

func (h *Handler) handleStations(w http.ResponseWriter, r *http.Request) {
	line := r.URL.Query().Get("line")

	stations, err := h.client.GetStations(mux.Vars(r)["network"], line)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeStationsResponse(w, stations)
}

func (h *Handler) handleByLocation(w http.ResponseWriter, r *http.Request) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")

	if latStr == "" || lonStr == "" {
		h.writeError(w, "Missing lat/lon parameter", http.StatusBadRequest)
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lat parameter", http.StatusBadRequest)
		return
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		h.writeError(w, "Invalid lon parameter", http.StatusBadRequest)
		return
	}

	limit := defaultNearest
	if s := r.URL.Query().Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 1 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
	}

	stations, err := h.client.GetStationsByLocation(mux.Vars(r)["network"], lat, lon, limit)
	if err != nil {
		h.writeClientError(w, err)
		return
	}

	h.writeStationsResponse(w, stations)
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" || end == "" {
		h.writeError(w, "Missing start/end parameter", http.StatusBadRequest)
		return
	}

	walk := false
	if s := q.Get("walk"); s != "" {
		var err error
		if walk, err = strconv.ParseBool(s); err != nil {
			h.writeError(w, "Invalid walk parameter", http.StatusBadRequest)
			return
		}
	}

	it, err := h.client.FindRoute(r.Context(), mux.Vars(r)["network"], start, end, walk)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeData(w, it.ConvertToResponse())
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Queries) == 0 || len(req.Queries) > maxBatch {
		h.writeError(w, "Batch must hold between 1 and 100 queries", http.StatusBadRequest)
		return
	}

	results, err := h.client.FindRoutes(r.Context(), mux.Vars(r)["network"], req.Queries)
	if err != nil {
		h.writeClientError(w, err)
		return
	}
	h.writeData(w, results)
}

func (h *Handler) writeStationsResponse(w http.ResponseWriter, stations []models.Station) {
	data := make([]models.StationResponse, len(stations))
	for i, station := range stations {
		line := ""
		if c, err := stationcode.Parse(station.Code); err == nil {
			line = c.Line
		}
		data[i] = station.ConvertToResponse(line)
	}
	h.writeData(w, data)
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	response := Response{Data: data}
	if updated := h.client.GetLastUpdate(); !updated.IsZero() {
		response.Updated = updated.Format(time.RFC3339)
	}
	h.writeJSON(w, response)
}

// writeClientError maps client errors to HTTP status codes
func (h *Handler) writeClientError(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), StatusFor(err))
}

// StatusFor returns the HTTP status for an error returned by the router client
func StatusFor(err error) int {
	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, stationcode.ErrMalformedCode), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnknownNetwork), errors.Is(err, store.ErrUnknownLine),
		errors.Is(err, graph.ErrUnknownStation):
		return http.StatusNotFound
	case errors.Is(err, search.ErrNoRoute):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
