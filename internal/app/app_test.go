package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.GRPCAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.JWTSecret = "test-secret"
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func httpGet(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestApp_RunServesAndShutsDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	metricsURL := "http://" + a.MetricsAddr()
	require.Eventually(t, func() bool {
		resp, err := http.Get(metricsURL + "/readyz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	code, _ := httpGet(t, metricsURL+"/livez")
	assert.Equal(t, http.StatusOK, code)

	code, body := httpGet(t, metricsURL+"/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "storefront_outbox_pending_records")

	code, body = httpGet(t, "http://"+a.HTTPAddr()+"/api/v1/cart")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Contains(t, body, "unauthenticated")

	conn, err := grpc.NewClient(a.GRPCAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	checkCtx, checkCancel := context.WithTimeout(ctx, time.Second)
	defer checkCancel()
	resp, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	cancel()
	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = "invalid-driver"

	_, err := New(context.Background(), cfg, nil)
	require.ErrorContains(t, err, "unsupported storage driver")
}

func TestNew_PortInUse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	defer first.release()

	cfg := testConfig()
	cfg.HTTPAddr = first.HTTPAddr()
	_, err = New(ctx, cfg, nil)
	require.ErrorContains(t, err, "listen http")
}

func TestNew_ReleasesListenersWhenPortBusy(t *testing.T) {
	spare, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	httpAddr := spare.Addr().String()
	require.NoError(t, spare.Close())

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := testConfig()
	cfg.HTTPAddr = httpAddr
	cfg.MetricsAddr = busy.Addr().String()

	a, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "listen metrics")

	again, err := net.Listen("tcp", httpAddr)
	require.NoError(t, err, "http listener must be closed after failed New")
	require.NoError(t, again.Close())
}
