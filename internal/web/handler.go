package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denwilliams/go-wled-race/internal/logging"
	"github.com/denwilliams/go-wled-race/internal/plugin"
	"github.com/denwilliams/go-wled-race/internal/race"
	"github.com/denwilliams/go-wled-race/internal/wled"
)

// Controller is the slice of the plugin manager the HTTP surface drives.
type Controller interface {
	Status() plugin.Status
	SaveAddress(ctx context.Context, address string) error
	Bus() *race.Bus
}

type deviceRequest struct {
	DeviceIP string `json:"device_ip"`
}

type eventResponse struct {
	Event    race.EventKind `json:"event"`
	Handlers int            `json:"handlers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func CreateHandler(c Controller) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.Status())
	})

	mux.HandleFunc("POST /api/v1/device", func(w http.ResponseWriter, r *http.Request) {
		var req deviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
			return
		}

		err := c.SaveAddress(r.Context(), strings.TrimSpace(req.DeviceIP))
		var connErr *wled.ConnectionError
		switch {
		case errors.As(err, &connErr):
			writeJSON(w, http.StatusBadGateway, c.Status())
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusOK, c.Status())
		}
	})

	mux.HandleFunc("POST /api/v1/events/{kind}", func(w http.ResponseWriter, r *http.Request) {
		kind, err := race.ParseEventKind(r.PathValue("kind"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}

		args := race.Args{}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			if err := json.Unmarshal(body, &args); err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body: " + err.Error()})
				return
			}
		}

		n := c.Bus().Emit(kind, args)
		writeJSON(w, http.StatusAccepted, eventResponse{Event: kind, Handlers: n})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		logging.Warn("Error writing response: %s", err)
	}
}
