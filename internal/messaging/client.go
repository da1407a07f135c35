package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/mcoot/playerregistry/internal/model"
)

// ErrClientClosed is returned for requests on a closed client
var ErrClientClosed = errors.New("messaging client closed")

// Client speaks the messaging protocol over one websocket connection.
// Requests may be issued concurrently; each gets its own stream id.
type Client struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	streams map[int64]*clientStream
	err     error
	done    chan struct{}
}

// clientStream is the receiving side of one request. Only the read loop
// closes frames; gone is closed when the caller stops listening.
type clientStream struct {
	frames chan Frame
	gone   chan struct{}
	once   sync.Once
}

func (s *clientStream) abandon() {
	s.once.Do(func() { close(s.gone) })
}

// Dial connects to a messaging endpoint (ws:// or wss:// URL)
func Dial(ctx context.Context, url string) (*Client, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Client{
		ws:      ws,
		streams: make(map[int64]*clientStream),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	var err error
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.err = err
		for id, stream := range c.streams {
			close(stream.frames)
			delete(c.streams, id)
		}
		close(c.done)
	}()

	for {
		var frame Frame
		if err = c.ws.ReadJSON(&frame); err != nil {
			return
		}

		terminal := frame.Type != FrameNext
		c.mu.Lock()
		stream, ok := c.streams[frame.StreamID]
		if ok && terminal {
			delete(c.streams, frame.StreamID)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}

		select {
		case stream.frames <- frame:
		case <-stream.gone:
		}
		if terminal {
			close(stream.frames)
		}
	}
}

func (c *Client) write(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(frame)
}

// Request opens a stream on route and returns its id and frame channel.
// The channel closes after the terminal frame or when the connection drops,
// but not after Cancel.
func (c *Client) Request(route string, data any) (int64, <-chan Frame, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request data: %w", err)
		}
		raw = encoded
	}

	id := c.nextID.Add(1)
	stream := &clientStream{
		frames: make(chan Frame, 16),
		gone:   make(chan struct{}),
	}

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return 0, nil, ErrClientClosed
	default:
	}
	c.streams[id] = stream
	c.mu.Unlock()

	if err := c.write(Frame{StreamID: id, Type: FrameRequest, Route: route, Data: raw}); err != nil {
		c.forget(id)
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	return id, stream.frames, nil
}

// Cancel stops a stream. No further frames are delivered for it.
func (c *Client) Cancel(streamID int64) error {
	c.forget(streamID)
	return c.write(Frame{StreamID: streamID, Type: FrameCancel})
}

func (c *Client) forget(streamID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stream, ok := c.streams[streamID]; ok {
		delete(c.streams, streamID)
		stream.abandon()
	}
}

// List returns the registry contents, one player per received frame
func (c *Client) List(ctx context.Context) (model.Snapshot, error) {
	snapshot := model.Snapshot{}
	err := c.collect(ctx, RouteList, nil, func(data json.RawMessage) error {
		var player model.Player
		if err := json.Unmarshal(data, &player); err != nil {
			return err
		}
		snapshot = append(snapshot, player)
		return nil
	})
	return snapshot, err
}

// Add submits a username and returns the created player
func (c *Client) Add(ctx context.Context, username string) (model.Player, error) {
	var player model.Player
	err := c.collect(ctx, RouteAdd, username, func(data json.RawMessage) error {
		return json.Unmarshal(data, &player)
	})
	return player, err
}

// Stream subscribes to snapshot updates and calls fn for each until ctx is
// cancelled or fn returns an error. Cancellation sends a cancel frame.
func (c *Client) Stream(ctx context.Context, fn func(model.Snapshot) error) error {
	return c.collect(ctx, RouteStream, nil, func(data json.RawMessage) error {
		var snapshot model.Snapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return err
		}
		return fn(snapshot)
	})
}

// collect drives one stream, passing each next frame's data to fn
func (c *Client) collect(ctx context.Context, route string, data any, fn func(json.RawMessage) error) error {
	id, frames, err := c.Request(route, data)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = c.Cancel(id)
			return ctx.Err()

		case frame, ok := <-frames:
			if !ok {
				return c.closedErr()
			}
			switch frame.Type {
			case FrameNext:
				if err := fn(frame.Data); err != nil {
					_ = c.Cancel(id)
					return err
				}
			case FrameComplete:
				return nil
			case FrameError:
				var payload ErrorPayload
				if err := json.Unmarshal(frame.Data, &payload); err != nil {
					return fmt.Errorf("decode error frame: %w", err)
				}
				return payload
			}
		}
	}
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return fmt.Errorf("%w: %v", ErrClientClosed, c.err)
	}
	return ErrClientClosed
}

// Done is closed once the connection has dropped
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and tears the connection down
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}
