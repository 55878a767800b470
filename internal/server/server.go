// Package server exposes Eco-Devices readings as JSON over HTTP. Every
// request is forwarded to the device; nothing is cached.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/zberg/go-ecodevices/pkg/ecodevices"
)

// Device is the part of *ecodevices.Client served over HTTP.
type Device interface {
	FetchIdentity(ctx context.Context) (ecodevices.DeviceIdentity, error)
	Ping(ctx context.Context) bool
	GlobalGet(ctx context.Context) (ecodevices.RawStatus, error)
	Teleinfo(ctx context.Context, ch ecodevices.Channel) (ecodevices.TeleinfoReading, error)
	Counter(ctx context.Context, ch ecodevices.Channel) (ecodevices.CounterReading, error)
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type pingResponse struct {
	Alive bool `json:"alive"`
}

// New returns a router serving d. A nil logger means slog.Default().
func New(d Device, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	router := httprouter.New()

	router.GET("/status", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		status, err := d.GlobalGet(r.Context())
		respond(w, logger, status, err)
	})

	router.GET("/identity", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id, err := d.FetchIdentity(r.Context())
		respond(w, logger, id, err)
	})

	router.GET("/ping", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		respond(w, logger, pingResponse{Alive: d.Ping(r.Context())}, nil)
	})

	router.GET("/teleinfo/:channel", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ch, err := ecodevices.ParseChannel(ps.ByName("channel"))
		if err != nil {
			respond(w, logger, nil, err)
			return
		}
		reading, err := d.Teleinfo(r.Context(), ch)
		respond(w, logger, reading, err)
	})

	router.GET("/counter/:channel", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ch, err := ecodevices.ParseChannel(ps.ByName("channel"))
		if err != nil {
			respond(w, logger, nil, err)
			return
		}
		reading, err := d.Counter(r.Context(), ch)
		respond(w, logger, reading, err)
	})

	return router
}

func respond(w http.ResponseWriter, logger *slog.Logger, v interface{}, err error) {
	code := http.StatusOK
	if err != nil {
		code, v = classify(err)
		logger.Warn("device request failed", "error", err)
	}

	marshaled, merr := json.Marshal(v)
	if merr != nil {
		logger.Error("error marshaling", "error", merr)
		http.Error(w, merr.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(marshaled)
}

// classify maps device errors to gateway status codes.
func classify(err error) (int, errorResponse) {
	var ce *ecodevices.ConnectionError
	switch {
	case errors.Is(err, ecodevices.ErrInvalidChannel):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "invalid_channel"}
	case errors.As(err, &ce) && ce.Timeout():
		return http.StatusGatewayTimeout, errorResponse{Error: err.Error(), Kind: "connection"}
	case errors.Is(err, ecodevices.ErrConnection):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Kind: "connection"}
	case errors.Is(err, ecodevices.ErrAuthentication):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Kind: "authentication"}
	case errors.Is(err, ecodevices.ErrProtocol):
		return http.StatusBadGateway, errorResponse{Error: err.Error(), Kind: "protocol"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "internal"}
	}
}
