package handler

import (
	"context"
	"net/http"
	"time"

	"backoffice-server/internal/apierrors"
	"backoffice-server/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleSessionWebSocket is the WebSocket transport for bulk-activation
// progress. Snapshots are relayed as JSON text messages; after the terminal
// snapshot the connection is closed with a normal closure frame.
func (h *Handler) HandleSessionWebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	// Subscribe before upgrading so an unknown session still gets a clean
	// HTTP error instead of an immediately closed socket.
	snapshots, cancel, err := h.processor.SubscribeSession(ctx, c.Param("session_id"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "failed to upgrade websocket connection", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close frames and pings are processed; any read
	// error means the client went away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clientGone:
			h.logger.Info(ctx, "websocket client disconnected")
			return
		case snapshot, chanOk := <-snapshots:
			if !chanOk {
				h.closeConn(ctx, conn, websocket.CloseGoingAway, "session expired")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(snapshot); err != nil {
				h.logger.Error(ctx, "failed to write websocket message", err)
				return
			}
			if snapshot.Terminal() {
				h.closeConn(ctx, conn, websocket.CloseNormalClosure, snapshot.Type)
				return
			}
		}
	}
}

func (h *Handler) closeConn(ctx context.Context, conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil &&
		!websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		h.logger.Debug(ctx, "failed to write websocket close frame",
			observability.Field{Key: "error", Value: err.Error()})
	}
}
