package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/lounge/internal/daemon"
	"github.com/matheus3301/lounge/internal/profile"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var statusTimeout time.Duration

var errNotReady = errors.New("backend not ready")

// statusCmd checks the health of the profile daemon started with lounged.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the profile daemon is connected",
	Long: `Query the health service of the lounged daemon for the active profile.

Exits non-zero when the daemon is unreachable or its backend is not ready.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second, "health check timeout")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	p, err := resolve()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	st, err := daemon.CheckHealth(ctx, profile.SocketPath(p.Profile))
	if err != nil {
		return fmt.Errorf("daemon for profile %q not reachable: %w", p.Profile, err)
	}

	ready := st == healthpb.HealthCheckResponse_SERVING
	state := "ready"
	if !ready {
		state = "not ready"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "profile %s: %s\n", p.Profile, state)
	if !ready {
		return errNotReady
	}
	return nil
}
