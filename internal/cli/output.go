package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mcoot/playerregistry/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintLine outputs data as a single line, used for streamed items
func (o *Output) PrintLine(data any) {
	if o.format == "json" {
		encoded, _ := json.Marshal(data)
		fmt.Fprintln(o.w, string(encoded))
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case []response.Player:
		o.printPlayers(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
	case SnapshotUpdate:
		o.printSnapshotUpdate(v)
	case SSEEvent:
		o.printSSEEvent(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p response.Player) {
	fmt.Fprintf(o.w, "Player: %s (%d)\n", p.Username, p.ID)
}

func (o *Output) printPlayers(players []response.Player) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSERNAME")
	for _, p := range players {
		fmt.Fprintf(tw, "%d\t%s\n", p.ID, p.Username)
	}
	_ = tw.Flush()
}

// SnapshotUpdate is one emission of a stream subscription
type SnapshotUpdate struct {
	Sequence int               `json:"sequence"`
	Players  []response.Player `json:"players"`
}

func (o *Output) printSnapshotUpdate(u SnapshotUpdate) {
	usernames := make([]string, len(u.Players))
	for i, p := range u.Players {
		usernames[i] = p.Username
	}
	newest := ""
	if len(u.Players) > 0 {
		last := u.Players[len(u.Players)-1]
		newest = fmt.Sprintf(", newest %s (%d)", last.Username, last.ID)
	}
	fmt.Fprintf(o.w, "[%d] %d players%s: %s\n", u.Sequence, len(u.Players), newest, strings.Join(usernames, ", "))
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func (o *Output) printSSEEvent(e SSEEvent) {
	timestamp := e.Time.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := e.Data
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	// Remove newlines for cleaner display
	displayData = strings.ReplaceAll(displayData, "\n", " ")
	fmt.Fprintf(o.w, "[%s] %s: %s\n", timestamp, e.Event, displayData)
}
