package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chat"
	"github.com/matheus3301/lounge/internal/daemon"
	"github.com/matheus3301/lounge/internal/prompt"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/sync/errgroup"
)

var (
	chatsLimit   int
	chatsTimeout time.Duration
)

// chatsCmd runs the core headless until the first chat list arrives.
var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Print the chat list and exit",
	Long: `Connect the active profile, wait for the chat list and print it.

Login prompts, if any, are answered on the terminal.`,
	Args: cobra.NoArgs,
	RunE: runChats,
}

func init() {
	chatsCmd.Flags().IntVarP(&chatsLimit, "limit", "n", 0, "chats to fetch (default ui.chat_limit)")
	chatsCmd.Flags().DurationVar(&chatsTimeout, "timeout", 2*time.Minute, "give up after this long")
}

func runChats(cmd *cobra.Command, _ []string) error {
	p, err := resolve()
	if err != nil {
		return err
	}
	if chatsLimit > 0 {
		p.Config.UI.ChatLimit = chatsLimit
	}
	p.Prompter = prompt.NewTerminal(os.Stdin, cmd.ErrOrStderr())

	var b *bus.Bus
	app := fx.New(
		daemon.EventLogger,
		daemon.Core(p),
		fx.Populate(&b),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), chatsTimeout)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start profile %q: %w", p.Profile, err)
	}
	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelStop()
		_ = app.Stop(stopCtx)
	}()

	chats, err := awaitChats(ctx, b, p.Config.UI.TickInterval.Duration)
	if err != nil {
		return err
	}
	return printChats(cmd.OutOrStdout(), chats)
}

// awaitChats pumps b until a chat list or a backend failure arrives.
func awaitChats(ctx context.Context, b *bus.Bus, interval time.Duration) (chat.List, error) {
	got := make(chan chat.List, 1)
	failed := make(chan chat.Status, 1)

	listTok := b.Subscribe(bus.BackendChatList, func(e bus.Event) {
		if l, ok := e.Payload.(chat.List); ok {
			select {
			case got <- l:
			default:
			}
		}
	})
	defer b.Unsubscribe(listTok)
	statusTok := b.Subscribe(bus.BackendStatus, func(e bus.Event) {
		if s, ok := e.Payload.(chat.Status); ok && (s.Kind == chat.Error || s.Kind == chat.Stopped) {
			select {
			case failed <- s:
			default:
			}
		}
	})
	defer b.Unsubscribe(statusTok)

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()

	var chats chat.List
	g, gctx := errgroup.WithContext(pumpCtx)
	g.Go(func() error {
		err := daemon.Pump(gctx, b, interval)
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		defer stopPump()
		select {
		case chats = <-got:
			return nil
		case s := <-failed:
			return fmt.Errorf("backend %s: %s", s.Kind, s.Detail)
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chats, nil
}

func printChats(w io.Writer, chats chat.List) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE")
	for _, c := range chats {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Title)
	}
	return tw.Flush()
}
