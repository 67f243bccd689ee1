package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matheus3301/lounge/internal/bus"
	"github.com/matheus3301/lounge/internal/chatstate"
	"github.com/matheus3301/lounge/internal/config"
	"github.com/matheus3301/lounge/internal/daemon"
	"github.com/matheus3301/lounge/internal/network"
	"github.com/matheus3301/lounge/internal/profile"
	"github.com/matheus3301/lounge/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var (
	profileName string
	configPath  string
)

// rootCmd runs the TUI with the core in-process.
var rootCmd = &cobra.Command{
	Use:   "lounge",
	Short: "Chat from the terminal",
	Long: `lounge connects a chat account to a terminal UI.

Each profile keeps its own login, message cache and logs under
~/.lounge/profiles/<name>. Only one process may use a profile at a time.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (overrides config default)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.lounge/config.toml)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(chatsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// resolve loads the config and validates the active profile.
func resolve() (daemon.Params, error) {
	path := configPath
	if path == "" {
		path = profile.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return daemon.Params{}, err
	}
	name := profile.Resolve(profileName, cfg)
	if err := profile.ValidateName(name); err != nil {
		return daemon.Params{}, err
	}
	return daemon.Params{
		Profile:    name,
		Binary:     "lounge",
		Config:     cfg,
		ConfigPath: path,
	}, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	p, err := resolve()
	if err != nil {
		return err
	}

	ui := tui.NewApp(p.Profile)
	p.Prompter = ui

	var (
		b   *bus.Bus
		st  *chatstate.Store
		mgr *network.Manager
	)
	app := fx.New(
		daemon.EventLogger,
		daemon.Core(p),
		fx.Populate(&b, &st, &mgr),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start profile %q: %w", p.Profile, err)
	}

	ui.Bind(tui.Backend{Bus: b, Store: st, Commands: mgr, Config: p.Config})
	go func() {
		<-cmd.Context().Done()
		ui.Stop()
	}()
	runErr := ui.Run()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStop()
	return errors.Join(runErr, app.Stop(stopCtx))
}
