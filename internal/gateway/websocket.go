package gateway

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rbxsync/rbxsync-server/internal/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var wsTracer = otel.Tracer("event-stream")

const (
	writeWait        = 10 * time.Second
	subscriberBuffer = 64
)

var upgrader = websocket.Upgrader{
	// The server listens on loopback; editors and tools connect from any origin.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventStream serves progress events over websockets.
type EventStream struct {
	hub          *events.Hub
	tracer       trace.Tracer
	pingInterval time.Duration
}

// NewEventStream creates a stream backed by hub.
func NewEventStream(hub *events.Hub) *EventStream {
	return &EventStream{
		hub:          hub,
		tracer:       wsTracer,
		pingInterval: 30 * time.Second,
	}
}

// Stream handles WebSocket /events
// @Summary Stream extraction and sync progress
// @Description WebSocket endpoint sending one JSON event per message
// @Tags events
// @Success 101 "Switching Protocols"
// @Security BearerAuth
// @Router /events [get]
func (s *EventStream) Stream(c *gin.Context) {
	_, span := s.tracer.Start(c.Request.Context(), "event_stream.stream")
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"warn","message":"failed to upgrade connection","error":"%v"}`, err)
		return
	}
	defer conn.Close()

	feed, unsubscribe := s.hub.Subscribe(subscriberBuffer)
	defer unsubscribe()
	log.Printf(`{"level":"info","message":"event subscriber connected","remote":"%s"}`, c.ClientIP())

	// Client -> ignore; reading is how a close is noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	sent := 0
	defer func() {
		span.SetAttributes(attribute.Int("events_sent", sent))
	}()

	for {
		select {
		case <-done:
			return

		case event, ok := <-feed:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					span.RecordError(err)
					log.Printf(`{"level":"warn","message":"event write failed","error":"%v"}`, err)
				}
				return
			}
			sent++

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
