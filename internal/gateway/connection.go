package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/google/uuid"
)

// connection serves one authenticated WebSocket client: it decodes Request
// frames, dispatches them to a method handler, and serializes Response/Event
// frames back out over a single writer goroutine-free mutex (gorilla's
// websocket.Conn is not safe for concurrent writers).
type connection struct {
	id     string
	server *Server
	ws     *websocket.Conn

	writeMu sync.Mutex
}

func newConnection(s *Server, ws *websocket.Conn) *connection {
	return &connection{id: uuid.NewString(), server: s, ws: ws}
}

func (c *connection) serve(ctx context.Context) {
	defer c.ws.Close()
	for {
		var req Request
		if err := c.ws.ReadJSON(&req); err != nil {
			return
		}
		if req.Method == "" {
			c.sendResponse(errorResponse(req.ID, CodeInvalidRequest, "method is required"))
			continue
		}
		go c.dispatch(ctx, req)
	}
}

func (c *connection) dispatch(ctx context.Context, req Request) {
	handler, ok := methods[req.Method]
	if !ok {
		c.sendResponse(errorResponse(req.ID, CodeNotFound, "unknown method: "+req.Method))
		return
	}
	handler(ctx, c, req)
}

func (c *connection) sendResponse(resp Response) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.WriteJSON(resp)
}

func (c *connection) sendEvent(evt Event) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.WriteJSON(evt)
}

func decodeParams(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
