package messaging

import (
	"encoding/json"
	"fmt"
)

// FrameType identifies the role of a frame within a stream
type FrameType string

const (
	// Client to server
	FrameRequest FrameType = "request"
	FrameCancel  FrameType = "cancel"

	// Server to client
	FrameNext     FrameType = "next"
	FrameComplete FrameType = "complete"
	FrameError    FrameType = "error"
)

// Routes served over the channel
const (
	RouteList   = "players.list"
	RouteAdd    = "players.add"
	RouteStream = "players.stream"
)

// Error codes carried in error frames
const (
	CodeInvalidFrame    = "INVALID_FRAME"
	CodeUnknownRoute    = "UNKNOWN_ROUTE"
	CodeDuplicateStream = "DUPLICATE_STREAM"
	CodeInvalidData     = "INVALID_DATA"
	CodeInvalidUsername = "INVALID_USERNAME"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Frame is one JSON text message on the channel
type Frame struct {
	StreamID int64           `json:"stream_id"`
	Type     FrameType       `json:"type"`
	Route    string          `json:"route,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// ErrorPayload is the data of an error frame
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error lets a received error payload be returned as an error
func (e ErrorPayload) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func nextFrame(streamID int64, v any) (Frame, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Frame{}, fmt.Errorf("encode frame data: %w", err)
	}
	return Frame{StreamID: streamID, Type: FrameNext, Data: data}, nil
}

func completeFrame(streamID int64) Frame {
	return Frame{StreamID: streamID, Type: FrameComplete}
}

func errorFrame(streamID int64, code, message string) Frame {
	// ErrorPayload always encodes
	data, _ := json.Marshal(ErrorPayload{Code: code, Message: message})
	return Frame{StreamID: streamID, Type: FrameError, Data: data}
}
