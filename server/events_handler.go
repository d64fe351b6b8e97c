package server

import (
	"net/http"

	"musiclib/core/apperr"
	"musiclib/core/events"
	"musiclib/db"
	"musiclib/logger"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler GET /api/events 升级为 websocket 并推送曲库变更
func (h *APIHandler) EventsHandler(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, r, apperr.Unavailable("event stream is not enabled"))
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := events.NewClient(h.hub, conn)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

// HealthHandler GET /healthz
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(h.db); err != nil {
		logger.Warn("[Health] database ping failed", logger.ErrorField(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
