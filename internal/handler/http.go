package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/ugaemi/geohunt-server/internal/result"
	"github.com/ugaemi/geohunt-server/internal/room"
	"github.com/ugaemi/geohunt-server/internal/store"
	"github.com/ugaemi/geohunt-server/internal/ws"
)

const (
	qrSize             = 320
	defaultResultLimit = 20
	maxResultLimit     = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // mobile clients send no Origin
	},
}

// HTTPConfig wires the HTTP endpoints.
type HTTPConfig struct {
	Registry    *room.Registry
	Hub         *ws.Hub
	Results     store.ResultStore
	JoinURLBase string
}

// NewHTTPHandler returns the server's HTTP routes.
func NewHTTPHandler(cfg HTTPConfig) http.Handler {
	mux := httprouter.New()
	mux.GET("/health", handleHealth(cfg.Registry))
	mux.GET("/rooms", handleRooms(cfg.Registry))
	mux.GET("/rooms/:code/qr", handleRoomQR(cfg.Registry, cfg.JoinURLBase))
	mux.GET("/results", handleResults(cfg.Results))
	if cfg.Hub != nil {
		mux.GET("/ws", handleWebSocket(cfg.Hub))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

func handleHealth(reg *room.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:    "ok",
			Timestamp: reg.Clock().Now().UnixMilli(),
		})
	}
}

func handleRooms(reg *room.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, reg.Summaries())
	}
}

func handleRoomQR(reg *room.Registry, joinURLBase string) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
		r, err := reg.GetRoom(ps.ByName("code"))
		if err != nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		url := strings.TrimSuffix(joinURLBase, "/") + "/" + r.Code
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			slog.Error("qr generation failed", "room", r.Code, "error", err)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func handleResults(results store.ResultStore) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if results == nil {
			http.Error(w, store.ErrDisabled.Error(), http.StatusServiceUnavailable)
			return
		}

		limit := defaultResultLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = min(n, maxResultLimit)
		}

		list, err := results.RecentResults(r.Context(), limit)
		if errors.Is(err, store.ErrDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err != nil {
			slog.Error("failed to load results", "error", err)
			http.Error(w, "failed to load results", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*result.GameResult{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleWebSocket(hub *ws.Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", "error", err)
			return
		}

		client := ws.NewClient(hub, conn)
		select {
		case hub.Register <- client:
		case <-hub.Done():
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
