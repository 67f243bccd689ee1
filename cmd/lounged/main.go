package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/matheus3301/lounge/internal/config"
	"github.com/matheus3301/lounge/internal/daemon"
	"github.com/matheus3301/lounge/internal/profile"
	"github.com/matheus3301/lounge/internal/prompt"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	configFlag := flag.String("config", "", "config file (default ~/.lounge/config.toml)")
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = profile.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	name := profile.Resolve(*profileFlag, cfg)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.EventLogger,
		daemon.Module(daemon.Params{
			Profile:    name,
			Config:     cfg,
			ConfigPath: configPath,
			Stderr:     true,
			Prompter:   prompt.NewTerminal(os.Stdin, os.Stderr),
		}),
	)

	app.Run()
}
