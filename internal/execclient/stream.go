package execclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/apexomega/titan/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// StatusUpdate is a transaction lifecycle event streamed by the execution
// service.
type StatusUpdate struct {
	TradeID   string             `json:"trade_id"`
	TxHash    string             `json:"tx_hash,omitempty"`
	Status    domain.TradeStatus `json:"status"`
	NetProfit float64            `json:"net_profit,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Stream is a WebSocket subscription to the service's /stream endpoint. It
// delivers StatusUpdates until closed or the peer disconnects.
type Stream struct {
	wsURL string
	log   *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	updates chan StatusUpdate
	done    chan struct{}
}

// NewStream creates a Stream for the service at host:port.
func NewStream(host string, port int, log *slog.Logger) *Stream {
	if log == nil {
		log = slog.Default()
	}
	return &Stream{
		wsURL:   fmt.Sprintf("ws://%s:%d/stream", host, port),
		log:     log.With("component", "exec_stream"),
		updates: make(chan StatusUpdate, 128),
		done:    make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("execclient: stream closed")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("%w: stream connect: %v", domain.ErrNotConnected, err)
	}
	s.conn = conn

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go s.readLoop(conn)
	go s.pingLoop(conn)

	return nil
}

// Updates returns the channel of streamed status updates. The channel closes
// when the stream shuts down.
func (s *Stream) Updates() <-chan StatusUpdate {
	return s.updates
}

// Close shuts down the stream and closes the updates channel.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Stream) readLoop(conn *websocket.Conn) {
	defer close(s.updates)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.log.Warn("stream read failed", "err", err)
			}
			return
		}

		var update StatusUpdate
		if err := json.Unmarshal(payload, &update); err != nil {
			s.log.Warn("stream message malformed", "err", err)
			continue
		}

		select {
		case s.updates <- update:
		case <-s.done:
			return
		}
	}
}

func (s *Stream) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}
