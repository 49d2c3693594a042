package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/events"
)

const (
	msgStatus = "status"
	msgEvent  = "event"

	writeWait = 10 * time.Second
	// pollEvery bounds how long a dropped terminal event keeps a stream open.
	pollEvery = time.Second
)

// Message is a websocket frame of the run stream.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamRun upgrades to a websocket that receives the current status of
// the run followed by its events. The server closes the stream after the
// terminal event.
func (h *Handler) StreamRun(c *gin.Context) {
	if h.deps.Bus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event stream disabled"})
		return
	}
	id := c.Param("processId")
	// Subscribe first so the terminal event cannot slip between the status
	// read and the subscription.
	sub := h.deps.Bus.Subscribe()
	defer h.deps.Bus.Unsubscribe(sub)
	var remote <-chan events.RunEvent
	if h.deps.Remote != nil {
		remote = h.deps.Remote.Subscribe()
		defer h.deps.Remote.Unsubscribe(remote)
	}

	st, err := h.deps.Manager.Status(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade for run %s: %v", id, err)
		return
	}
	defer conn.Close()

	if err := write(conn, Message{Type: msgStatus, Data: st}); err != nil || st.State.Terminal() {
		closeStream(conn)
		return
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	poll := time.NewTicker(pollEvery)
	defer poll.Stop()
	for {
		select {
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		case <-poll.C:
			st, err := h.deps.Manager.Status(c.Request.Context(), id)
			if err == nil && st.State.Terminal() {
				_ = write(conn, Message{Type: msgStatus, Data: st})
				closeStream(conn)
				return
			}
		case ev, ok := <-sub:
			if !ok {
				closeStream(conn)
				return
			}
			if done, err := forward(conn, id, ev); done || err != nil {
				return
			}
		case ev, ok := <-remote:
			if !ok {
				remote = nil
				continue
			}
			if done, err := forward(conn, id, ev); done || err != nil {
				return
			}
		}
	}
}

// forward writes ev when it belongs to the run and closes the stream after
// a terminal event.
func forward(conn *websocket.Conn, id string, ev events.RunEvent) (bool, error) {
	if ev.ProcessID != id {
		return false, nil
	}
	if err := write(conn, Message{Type: msgEvent, Data: ev}); err != nil {
		return false, err
	}
	if ev.Kind.Terminal() {
		closeStream(conn)
		return true, nil
	}
	return false, nil
}

func write(conn *websocket.Conn, msg Message) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func closeStream(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"),
		time.Now().Add(writeWait))
}
