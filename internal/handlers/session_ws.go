package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AnshRaj112/moodjournal-backend/internal/middleware"
	"github.com/AnshRaj112/moodjournal-backend/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 30 * time.Second
)

// originChecker allows WebSocket upgrades from the CORS origins and from
// native clients, which send no Origin header.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(a), origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// SessionWebSocket streams the caller's auth state changes (SIGNED_OUT,
// PASSWORD_RECOVERY, USER_UPDATED, ...) until the socket closes. After a
// SIGNED_OUT or USER_UPDATED event the socket is closed if its own session
// is gone.
func (h *Handler) SessionWebSocket(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	token := middleware.BearerToken(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, unsubscribe := h.events.Subscribe(uid.String())
	defer unsubscribe()

	// Reader: the client sends nothing useful, but reading is what
	// processes pongs and notices a closed socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(4 * 1024)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				h.log.Debug("session socket write failed", zap.String("user_id", uid.String()), zap.Error(err))
				return
			}
			if evt.Type == models.SessionSignedOut || evt.Type == models.SessionUserUpdated {
				if _, err := h.auth.CurrentSession(r.Context(), token); err == nil {
					continue
				}
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "signed out"),
					time.Now().Add(wsWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
