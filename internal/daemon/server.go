package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"

	"github.com/matheus3301/lounge/internal/profile"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// BackendService is the health service name tracking backend readiness.
// The overall ("") status reports the daemon itself.
const BackendService = "lounge.Backend"

// Server answers gRPC health checks on the profile socket so that
// `lounge status` can tell whether a daemon is up and its backend ready.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	lis    net.Listener
	path   string
	logger *zap.Logger
}

// NewServer binds the health server to the socket of p's profile, or
// p.SocketPath when set.
func NewServer(p Params, logger *zap.Logger) (*Server, error) {
	if p.SocketPath != "" {
		return Listen(p.SocketPath, logger)
	}
	return Listen(profile.SocketPath(p.Profile), logger)
}

// listenUnix replaces any leftover socket file and restricts the new one
// to the owner.
func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	lis, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		_ = lis.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return lis, nil
}

// Listen binds the health server to path. The backend starts out
// NOT_SERVING.
func Listen(path string, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lis, err := listenUnix(path)
	if err != nil {
		return nil, err
	}

	s := &Server{
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		lis:    lis,
		path:   path,
		logger: logger,
	}
	s.health.SetServingStatus(BackendService, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	return s, nil
}

// SocketPath returns the bound socket.
func (s *Server) SocketPath() string {
	return s.path
}

// SetServing mirrors backend readiness into the health status.
func (s *Server) SetServing(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(BackendService, status)
}

// Serve blocks until Stop. A stop is not an error.
func (s *Server) Serve() error {
	s.logger.Info("health server listening", zap.String("socket", s.path))
	if err := s.grpc.Serve(s.lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop drains open health checks until ctx ends, then closes them, and
// removes the socket file.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("health server stopping")
	s.health.Shutdown()

	drained := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		s.grpc.Stop()
		<-drained
	}
	_ = os.Remove(s.path)
}
