package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"backoffice-server/internal/apierrors"
	"backoffice-server/internal/progress"

	"github.com/gin-gonic/gin"
)

// HandleStreamSession is the SSE transport for bulk-activation progress.
// Each snapshot is sent as a "progress" event; the terminal snapshot is sent
// as "complete" or "error". The stream always ends with a terminal event
// unless the client disconnects first.
func (h *Handler) HandleStreamSession(c *gin.Context) {
	ctx := c.Request.Context()
	w := c.Writer

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error(ctx, "streaming unsupported by response writer", nil)
		apierrors.RespondWithError(c, apierrors.InternalError(errors.New("streaming unsupported")))
		return
	}

	snapshots, cancel, err := h.processor.SubscribeSession(ctx, c.Param("session_id"))
	if err != nil {
		apierrors.RespondWithError(c, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Tell EventSource clients how long to wait before reconnecting.
	if _, err := fmt.Fprint(w, "retry: 3000\n\n"); err != nil {
		h.logger.Error(ctx, "failed to write SSE retry preamble", err)
		return
	}
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info(ctx, "SSE client disconnected")
			return
		case snapshot, chanOk := <-snapshots:
			if !chanOk {
				// Subscription closed without a terminal snapshot: the
				// session was purged mid-stream.
				_ = writeSSEMessage(w, flusher, progress.TypeError, `{"msg":"session expired"}`)
				return
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				h.logger.Error(ctx, "failed to marshal progress snapshot", err)
				_ = writeSSEMessage(w, flusher, progress.TypeError, `{"msg":"internal error"}`)
				return
			}
			event := progress.TypeProgress
			if snapshot.Terminal() {
				event = snapshot.Type
			}
			if err := writeSSEMessage(w, flusher, event, string(data)); err != nil {
				h.logger.Error(ctx, "failed to write SSE event", err)
				return
			}
			if snapshot.Terminal() {
				return
			}
		}
	}
}

func writeSSEMessage(w http.ResponseWriter, flusher http.Flusher, event, data string) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
