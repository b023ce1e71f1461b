// Package dashboard exposes the websocket transport primitive for a
// downstream operator dashboard: accepting connections and forwarding
// whatever realtime.Broker broadcasts. The dashboard UI itself is
// explicitly out of scope (spec.md §1); this is only the socket.
package dashboard

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"solflow/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server upgrades HTTP connections to websockets and relays broker
// broadcasts to each connected client.
type Server struct {
	broker *realtime.Broker
}

func NewServer(broker *realtime.Broker) *Server {
	return &Server{broker: broker}
}

// ServeHTTP upgrades the request and streams broker broadcasts until the
// client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  dashboard: websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(ch)

	for msg := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
