package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/playerregistry/internal/dependencies/idgen"
	"github.com/mcoot/playerregistry/internal/dependencies/mocks"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/services/stream"
	"github.com/mcoot/playerregistry/internal/storage/memory"
	"github.com/mcoot/playerregistry/internal/testutil"
)

// readEvent reads one SSE event, skipping comment lines
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name string
	var data []string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if name != "" || len(data) > 0 {
				return name, strings.Join(data, "\n")
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestServeStream_EmitsSnapshotsOnTick(t *testing.T) {
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	reg := registry.New(memory.New(), idgen.NewSequence(), clk, nil, testutil.NopLogger())
	reg.Seed(registry.SeedUsernames...)
	controller := stream.NewController(reg, mocks.NewMockSynthesizer("Swift Falcon"), clk, stream.DefaultConfig(), testutil.NopLogger())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeStream(w, r, controller, testutil.NopLogger())
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	name, data := readEvent(t, reader)
	assert.Equal(t, SnapshotEvent, name)
	var initial model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &initial))
	assert.Equal(t, model.Snapshot{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "charlie"},
	}, initial)

	require.Eventually(t, func() bool { return clk.TickerCount() == 1 }, 2*time.Second, time.Millisecond)
	require.True(t, clk.Ticker(0).Tick())

	name, data = readEvent(t, reader)
	assert.Equal(t, SnapshotEvent, name)
	var next model.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &next))
	require.Len(t, next, 4)
	assert.Equal(t, model.Player{ID: 4, Username: "Swift Falcon"}, next[3])

	cancel()
	require.Eventually(t, func() bool { return controller.ActiveSessions() == 0 }, 2*time.Second, time.Millisecond)
	assert.True(t, clk.Ticker(0).Stopped())
}
