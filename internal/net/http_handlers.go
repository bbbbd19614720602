package net

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"path/filepath"
	"time"

	"physics-playground/internal/net/ws"
)

type HTTPHandlerConfig struct {
	ClientDir string
	Logger    *log.Logger
}

// NewHTTPHandler wires the relay's full HTTP surface: the two static assets,
// the websocket upgrade, and the operational endpoints. Every other path is
// a 404.
func NewHTTPHandler(wsHandler *ws.Handler, registry *ws.Registry, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/" {
			httpError(w, "not found", nethttp.StatusNotFound)
			return
		}
		nethttp.ServeFile(w, r, filepath.Join(cfg.ClientDir, "index.html"))
	})

	mux.HandleFunc("/client.js", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeFile(w, r, filepath.Join(cfg.ClientDir, "client.js"))
	})

	mux.HandleFunc("/ws", wsHandler.Handle)

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string `json:"status"`
			ServerTime  int64  `json:"serverTime"`
			Connections int    `json:"connections"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Connections: registry.Len(),
		}

		data, err := json.Marshal(payload)
		if err != nil {
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	return mux
}

func httpError(w nethttp.ResponseWriter, message string, code int) {
	nethttp.Error(w, message, code)
}
