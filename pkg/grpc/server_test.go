package grpc_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	hsgrpc "github.com/hsmarket/storefront/pkg/grpc"
)

func TestHealthCheckFollowsPing(t *testing.T) {
	ctx := context.Background()

	up := hsgrpc.NewHealthServer(func(context.Context) error { return nil })
	resp, err := up.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	down := hsgrpc.NewHealthServer(func(context.Context) error { return errors.New("mongo unreachable") })
	resp, err = down.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestServerOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := hsgrpc.NewServer(nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { hsgrpc.Stop(srv) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	resp, err := grpc_health_v1.NewHealthClient(conn).Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)
}
