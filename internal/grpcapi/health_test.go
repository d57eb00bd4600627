package grpcapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/BrandonDHaskell/gatelog/internal/grpcapi"
)

func TestHealthServer_ReportsServing(t *testing.T) {
	srv := grpcapi.NewHealthServer("127.0.0.1:0", zap.NewNop())
	require.NoError(t, srv.Listen())

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	conn, err := grpc.NewClient(srv.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	for _, name := range []string{"", grpcapi.ServiceName} {
		// Serve sets the status right before accepting, so wait for it.
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: name}, grpc.WaitForReady(true))
		require.NoError(t, err)
		require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus(), "service %q", name)
	}

	srv.Shutdown(ctx)
	require.NoError(t, <-serveErr)
}
