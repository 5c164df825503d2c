package grpcx

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestHealthServer(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	srv := NewHealthServer(logger)
	go func() {
		_ = srv.Serve(lis)
	}()
	defer func() { _ = srv.Shutdown(context.Background()) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := healthpb.NewHealthClient(conn)
	var resp *healthpb.HealthCheckResponse
	for {
		resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.WaitForReady(true))
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			break
		}
		if ctx.Err() != nil {
			t.Fatalf("health check never reported SERVING: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if RequestIDFromContext(ctx) != "abc" {
		t.Fatal("expected request id in context")
	}
	if WithRequestID(context.Background(), "") != context.Background() {
		t.Fatal("empty id should leave context untouched")
	}
}

func TestIncomingRequestID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "", RequestIDMetadataKey, "req-7"))
	if got := incomingRequestID(ctx); got != "req-7" {
		t.Fatalf("expected req-7, got %q", got)
	}
	if got := incomingRequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
