package sse

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/services/stream"
)

// SnapshotEvent is the SSE event name for stream session emissions
const SnapshotEvent = "snapshot"

// ServeStream runs a stream session for one HTTP client, writing each
// snapshot as an SSE event. The session closes when the client disconnects.
func ServeStream(w http.ResponseWriter, r *http.Request, controller *stream.Controller, logger *slog.Logger) {
	flusher, ok := setHeaders(w)
	if !ok {
		return
	}
	flusher.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots := make(chan model.Snapshot)
	done := make(chan error, 1)
	go func() {
		done <- controller.Stream(ctx, func(ctx context.Context, snapshot model.Snapshot) error {
			select {
			case snapshots <- snapshot:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot := <-snapshots:
			data, err := json.Marshal(snapshot)
			if err != nil {
				logger.Error("sse failed to encode snapshot", slog.Any("error", err))
				cancel()
				<-done
				return
			}
			if _, err := w.Write(formatSSEMessage(SnapshotEvent, string(data))); err != nil {
				cancel()
				<-done
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				cancel()
				<-done
				return
			}
			flusher.Flush()

		case err := <-done:
			if err != nil {
				logger.Warn("sse stream ended", slog.Any("error", err))
			}
			return
		}
	}
}
