package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/config"
	"github.com/stemsi/exstem-results/internal/response"
	ws "github.com/stemsi/exstem-results/internal/websocket"
)

const sseKeepAliveInterval = 25 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler pushes live score updates to admins, over WebSocket or SSE.
// Updates arrive through Redis PubSub so every server instance sees them.
type StreamHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *StreamHandler {
	return &StreamHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "stream_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// forward reports whether a raw PubSub payload should reach a subscriber
// filtered to examID.
func forward(payload string, examID string) bool {
	if examID == "" {
		return true
	}
	var ev ws.ScoreEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return false
	}
	// Deletions carry no exam and go to everyone.
	return ev.Event == ws.EventResultDelete || ev.Matches(examID)
}

// ResultsWebSocket godoc
// WS /ws/v1/admin/results/stream?token=
// Streams score_updated and result_deleted events. Clients may send
// {"action":"subscribe","exam_id":"..."} to narrow the stream, and
// {"action":"ping"}.
func (h *StreamHandler) ResultsWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.ResultUpdatesChannel())
	defer pubsub.Close()
	updates := pubsub.Channel()

	requests := make(chan ws.RequestPayload)
	go h.readLoop(ctx, cancel, conn, requests)

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	examFilter := ""
	h.log.Info().Msg("Admin attached to results stream")

	for {
		var err error
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("Admin detached from results stream")
			return

		case req := <-requests:
			switch req.Action {
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionSubscribe:
				if req.ExamID != "" {
					if _, perr := uuid.Parse(req.ExamID); perr != nil {
						err = ws.WriteError(conn, "invalid exam_id")
						break
					}
				}
				examFilter = req.ExamID
				err = ws.WriteTyped(conn, ws.SubscribedResponse{Event: ws.EventSubscribed, ExamID: examFilter})
			default:
				err = ws.WriteError(conn, "unknown action: "+string(req.Action))
			}

		case msg, ok := <-updates:
			if !ok {
				return
			}
			if forward(msg.Payload, examFilter) {
				err = ws.WriteRaw(conn, []byte(msg.Payload))
			}

		case <-ping.C:
			err = ws.WritePing(conn)
		}

		if err != nil {
			h.log.Debug().Err(err).Msg("Results stream write failed")
			return
		}
	}
}

// readLoop decodes client messages until the connection drops.
func (h *StreamHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out chan<- ws.RequestPayload) {
	defer cancel()
	ws.KeepAlive(conn)

	for {
		var req ws.RequestPayload
		if err := ws.ReadJSON(conn, &req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		select {
		case out <- req:
		case <-ctx.Done():
			return
		}
	}
}

// ResultsSSE godoc
// GET /api/v1/admin/results/stream?exam_id=
// Server-Sent Events fallback for clients that cannot open a WebSocket.
func (h *StreamHandler) ResultsSSE(c *gin.Context) {
	examFilter := c.Query("exam_id")
	if examFilter != "" {
		if _, err := uuid.Parse(examFilter); err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
	}

	ctx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.ResultUpdatesChannel())
	defer pubsub.Close()
	updates := pubsub.Channel()

	keepAlive := time.NewTicker(sseKeepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-updates:
			if !ok {
				return
			}
			if !forward(msg.Payload, examFilter) {
				continue
			}
			_, _ = c.Writer.Write([]byte("data: " + msg.Payload + "\n\n"))
			c.Writer.Flush()

		case <-keepAlive.C:
			_, _ = c.Writer.Write([]byte(": keep-alive\n\n"))
			c.Writer.Flush()
		}
	}
}
