package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fakeartist/internal/app"
	"fakeartist/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256

	// Time allowed for the engine to handle one client message
	commandTimeout = 5 * time.Second
)

// Client represents a WebSocket client connection
type Client struct {
	conn   *websocket.Conn
	engine Engine
	cc     domain.ClientContext
	send   chan []byte
	done   chan struct{}
	logger *slog.Logger
	mu     sync.Mutex
	closed bool

	// Events that arrive before the connected message are held back so
	// the client always sees connected first
	greeted bool
	pending [][]byte
}

var _ app.ClientConnection = (*Client)(nil)

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, engine Engine, cc domain.ClientContext, logger *slog.Logger) *Client {
	return &Client{
		conn:   conn,
		engine: engine,
		cc:     cc,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logger.With("sessionID", cc.SessionID, "participantID", cc.ParticipantID),
	}
}

// Send implements app.ClientConnection interface
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if !c.greeted {
		c.pending = append(c.pending, data)
		return nil
	}
	c.enqueue(data)
	return nil
}

// greet queues the connected message followed by anything sent before it
func (c *Client) greet(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.greeted {
		return nil
	}
	c.greeted = true
	c.enqueue(data)
	for _, p := range c.pending {
		c.enqueue(p)
	}
	c.pending = nil
	return nil
}

// enqueue must be called with mu held
func (c *Client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped")
	}
}

// Close implements app.ClientConnection interface
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return nil
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection. Dropping the
// socket detaches the connection; the participant stays in the session.
func (c *Client) readPump() {
	defer func() {
		c.engine.Detach(c.cc, c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket
// connection. Queued messages are flushed before a close is honored.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(message); err != nil {
				return
			}
		case <-c.done:
			for {
				select {
				case message := <-c.send:
					if err := c.write(message); err != nil {
						return
					}
				default:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					c.conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(message []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, message)
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendProtocolError("Invalid message format")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case MsgStartRound:
		var p StartRoundPayload
		if !c.decode(msg.Payload, &p) {
			return
		}
		_, err = c.engine.StartRound(ctx, c.cc.SessionID, app.StartParams{
			Variant:          p.Variant,
			QuestionMasterID: p.QuestionMasterID,
			Word:             p.Word,
			Category:         p.Category,
			Locale:           p.Locale,
		})
	case MsgPauseTimer:
		_, err = c.engine.PauseTimer(ctx, c.cc.SessionID)
	case MsgResumeTimer:
		_, err = c.engine.ResumeTimer(ctx, c.cc.SessionID)
	case MsgToggleTimer:
		_, err = c.engine.PauseOrResumeTimer(ctx, c.cc.SessionID)
	case MsgEndRound:
		_, err = c.engine.EndRound(ctx, c.cc.SessionID)
	case MsgLeave:
		err = c.engine.LeaveSession(ctx, c.cc)
	case MsgReport:
		var p ReportPayload
		if !c.decode(msg.Payload, &p) {
			return
		}
		err = c.engine.ReportSelection(ctx, c.cc, p.Kind)
	case MsgPing:
		c.Send(NewServerMessage(MsgPong, nil))
	default:
		c.sendProtocolError("Unknown message type")
		return
	}

	if err != nil {
		c.sendError(err)
	}
}

func (c *Client) decode(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		c.sendProtocolError("Payload is required")
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		c.sendProtocolError("Invalid payload")
		return false
	}
	return true
}

// sendError reports a failed command to the client
func (c *Client) sendError(err error) {
	payload := errorPayload(err)
	if payload.Code == ErrCodeInternalError {
		c.logger.Error("command failed", "error", err)
	}
	c.Send(NewServerMessage(MsgError, payload))
}

func (c *Client) sendProtocolError(message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    ErrCodeInvalidMessage,
		Message: message,
	}))
}

// errorPayload turns an engine error into its client-facing form
func errorPayload(err error) *ErrorPayload {
	var de *domain.Error
	if errors.As(err, &de) {
		return &ErrorPayload{Code: de.Code, Message: err.Error()}
	}
	return &ErrorPayload{Code: ErrCodeInternalError, Message: "Internal server error"}
}
