package api

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// streamEvents forwards bus events to the client as server-sent
// events until the client disconnects.
func (h *Handler) streamEvents(c *gin.Context) {
	sub := h.bus.Subscribe()
	defer h.bus.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-sub:
			if !ok {
				return false
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.log.Errorf("marshal event: %v", err)
				return true
			}
			c.SSEvent(string(ev.Type), string(payload))
			return true
		}
	})
}
