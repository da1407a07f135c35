package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/playerregistry/internal/api"
	"github.com/mcoot/playerregistry/internal/api/response"
	"github.com/mcoot/playerregistry/internal/messaging"
	"github.com/mcoot/playerregistry/internal/model"
)

// errStopStream ends a stream after the requested number of updates
var errStopStream = errors.New("stop stream")

func dialMessaging(ctx context.Context) (*messaging.Client, error) {
	url, err := cfg.MessagingURL(api.MessagingPath)
	if err != nil {
		return nil, err
	}
	return messaging.Dial(ctx, url)
}

func newMsgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "msg",
		Short: "One-shot requests over the messaging channel",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List players via players.list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := dialMessaging(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = mc.Close() }()

			snapshot, err := mc.List(cmd.Context())
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(response.PlayersFromSnapshot(snapshot))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Add a player via players.add",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mc, err := dialMessaging(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = mc.Close() }()

			player, err := mc.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(response.PlayerFromModel(player))
			return nil
		},
	})

	return cmd
}

func newStreamCmd() *cobra.Command {
	var jsonOutput bool
	var count int

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Subscribe to players.stream",
		Long: `Open a stream session over the messaging channel. The first update is the
current registry; each later update follows the server adding a generated player.

Press Ctrl+C to cancel the stream.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mc, err := dialMessaging(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = mc.Close() }()

			format := cfg.Output
			if jsonOutput {
				format = "json"
			}
			out := NewOutput(format, cmd.OutOrStdout())

			seq := 0
			err = mc.Stream(ctx, func(snapshot model.Snapshot) error {
				seq++
				out.PrintLine(SnapshotUpdate{Sequence: seq, Players: response.PlayersFromSnapshot(snapshot)})
				if count > 0 && seq >= count {
					return errStopStream
				}
				return nil
			})

			switch {
			case errors.Is(err, errStopStream), ctx.Err() != nil:
				return nil
			case err != nil:
				return fmt.Errorf("stream error: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output updates as JSON lines")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many updates (0 streams until interrupted)")

	return cmd
}
