package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/playerregistry/internal/model"
)

// conn is one websocket peer. A read loop dispatches requests, a write loop
// owns the socket for writing, and each in-flight stream runs in its own goroutine.
type conn struct {
	id     string
	server *Server
	ws     *websocket.Conn
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	send   chan Frame

	mu      sync.Mutex
	streams map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

func newConn(server *Server, ws *websocket.Conn) *conn {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	return &conn{
		id:      id,
		server:  server,
		ws:      ws,
		logger:  server.logger.With(slog.String("conn_id", id)),
		ctx:     ctx,
		cancel:  cancel,
		send:    make(chan Frame, server.cfg.SendBufferSize),
		streams: make(map[int64]context.CancelFunc),
	}
}

// serve blocks until the connection is closed and every stream has ended
func (c *conn) serve() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()

	c.readPump()

	c.cancel()
	c.wg.Wait()
	<-writerDone
	_ = c.ws.Close()
}

// shutdown asks the peer to go away and unblocks the read loop
func (c *conn) shutdown() {
	c.cancel()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(c.server.cfg.WriteWait))
	_ = c.ws.SetReadDeadline(time.Now())
}

func (c *conn) readPump() {
	cfg := c.server.cfg
	c.ws.SetReadLimit(cfg.MaxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("messaging read error", slog.Any("error", err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.logger.Debug("malformed frame", slog.Any("error", err))
			c.enqueue(c.ctx, errorFrame(0, CodeInvalidFrame, "frame is not valid JSON"))
			continue
		}

		c.dispatch(frame)
	}
}

func (c *conn) writePump() {
	cfg := c.server.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		// A failed write leaves the reader blocked; wake it
		c.cancel()
		_ = c.ws.SetReadDeadline(time.Now())
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.ws.WriteJSON(frame); err != nil {
				c.logger.Debug("messaging write failed", slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(cfg.WriteWait))
			return
		}
	}
}

// enqueue blocks until the frame is queued for writing or ctx ends
func (c *conn) enqueue(ctx context.Context, frame Frame) bool {
	select {
	case c.send <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *conn) dispatch(frame Frame) {
	switch frame.Type {
	case FrameRequest:
		c.startStream(frame)
	case FrameCancel:
		c.cancelStream(frame.StreamID)
	default:
		c.enqueue(c.ctx, errorFrame(frame.StreamID, CodeInvalidFrame, "unexpected frame type "+string(frame.Type)))
	}
}

type handlerFunc func(ctx context.Context, streamID int64, data json.RawMessage) error

func (c *conn) route(name string) (handlerFunc, bool) {
	switch name {
	case RouteList:
		return c.handleList, true
	case RouteAdd:
		return c.handleAdd, true
	case RouteStream:
		return c.handleStream, true
	default:
		return nil, false
	}
}

func (c *conn) startStream(frame Frame) {
	handler, ok := c.route(frame.Route)
	if !ok {
		c.enqueue(c.ctx, errorFrame(frame.StreamID, CodeUnknownRoute, "unknown route "+frame.Route))
		return
	}

	c.mu.Lock()
	if _, exists := c.streams[frame.StreamID]; exists {
		c.mu.Unlock()
		c.enqueue(c.ctx, errorFrame(frame.StreamID, CodeDuplicateStream, "stream id already in use"))
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.streams[frame.StreamID] = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer c.endStream(frame.StreamID)

		err := handler(ctx, frame.StreamID, frame.Data)
		if ctx.Err() != nil {
			// Cancelled streams end silently
			return
		}
		if err != nil {
			c.enqueue(ctx, c.errorFrameFor(frame.StreamID, err))
			return
		}
		c.enqueue(ctx, completeFrame(frame.StreamID))
	}()
}

func (c *conn) endStream(streamID int64) {
	c.mu.Lock()
	cancel, ok := c.streams[streamID]
	delete(c.streams, streamID)
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (c *conn) cancelStream(streamID int64) {
	c.mu.Lock()
	cancel, ok := c.streams[streamID]
	c.mu.Unlock()
	if ok {
		cancel()
	}
}

func (c *conn) activeStreams() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.streams)
}

func (c *conn) errorFrameFor(streamID int64, err error) Frame {
	var payload ErrorPayload
	switch {
	case errors.As(err, &payload):
		return errorFrame(streamID, payload.Code, payload.Message)
	case errors.Is(err, model.ErrInvalidUsername):
		return errorFrame(streamID, CodeInvalidUsername, err.Error())
	default:
		c.logger.Error("stream failed", slog.Int64("stream_id", streamID), slog.Any("error", err))
		return errorFrame(streamID, CodeInternalError, "internal error")
	}
}

func (c *conn) emit(ctx context.Context, streamID int64, v any) error {
	frame, err := nextFrame(streamID, v)
	if err != nil {
		return err
	}
	if !c.enqueue(ctx, frame) {
		return ctx.Err()
	}
	return nil
}

// handleList sends one frame per player of the current snapshot
func (c *conn) handleList(ctx context.Context, streamID int64, _ json.RawMessage) error {
	for _, player := range c.server.controller.QueryAll(ctx) {
		if err := c.emit(ctx, streamID, player); err != nil {
			return err
		}
	}
	return nil
}

// handleAdd creates a player from the raw username carried in data
func (c *conn) handleAdd(ctx context.Context, streamID int64, data json.RawMessage) error {
	var username *string
	if len(data) > 0 {
		if err := json.Unmarshal(data, &username); err != nil {
			return ErrorPayload{Code: CodeInvalidData, Message: "data must be a username string"}
		}
	}
	if username == nil {
		return ErrorPayload{Code: CodeInvalidData, Message: "data must be a username string"}
	}

	player, err := c.server.controller.SubmitNew(ctx, *username)
	if err != nil {
		return err
	}
	return c.emit(ctx, streamID, player)
}

// handleStream runs a stream session until the peer cancels or disconnects
func (c *conn) handleStream(ctx context.Context, streamID int64, _ json.RawMessage) error {
	c.logger.Debug("stream subscribed", slog.Int64("stream_id", streamID))
	return c.server.controller.Stream(ctx, func(ctx context.Context, snapshot model.Snapshot) error {
		return c.emit(ctx, streamID, snapshot)
	})
}
