package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"agecare/appointments/internal/domain"
	"agecare/appointments/internal/httpx"
	"agecare/appointments/internal/service/appointments"
)

func TestDefaultRequestTimeoutInterceptor(t *testing.T) {
	intercept := DefaultRequestTimeoutInterceptor(time.Second)

	var hasDeadline bool
	_, _ = intercept(context.Background(), nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		_, hasDeadline = ctx.Deadline()
		return nil, nil
	})
	if !hasDeadline {
		t.Fatalf("expected deadline to be added")
	}

	parent, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()
	want, _ := parent.Deadline()
	_, _ = intercept(parent, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		got, _ := ctx.Deadline()
		if !got.Equal(want) {
			t.Fatalf("deadline = %v, want caller deadline %v", got, want)
		}
		return nil, nil
	})
}

func TestRequestIDInterceptor_UsesIncomingMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-7"))

	var got string
	_, _ = RequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{}, func(ctx context.Context, req any) (any, error) {
		got = httpx.RequestIDFromContext(ctx)
		return nil, nil
	})
	if got != "req-7" {
		t.Fatalf("request id = %q, want req-7", got)
	}
}

func TestRateLimitInterceptor(t *testing.T) {
	rl := httpx.NewRateLimiter(0.001, 1)
	intercept := RateLimitInterceptor(rl)
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 5000}})
	ok := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	if _, err := intercept(ctx, nil, &grpc.UnaryServerInfo{}, ok); err != nil {
		t.Fatalf("first call error: %v", err)
	}
	_, err := intercept(ctx, nil, &grpc.UnaryServerInfo{}, ok)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.ResourceExhausted)
	}

	other := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 5000}})
	if _, err := intercept(other, nil, &grpc.UnaryServerInfo{}, ok); err != nil {
		t.Fatalf("other peer error: %v", err)
	}
}

func TestServiceDesc_RoundTripOverConnection(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(RequestIDInterceptor(), DefaultRequestTimeoutInterceptor(time.Second)))
	RegisterAppointmentsServiceServer(srv, NewAppointmentsServer(&fakeAppointmentsService{
		getFn: func(ctx context.Context, appointmentID int64) (domain.Appointment, error) {
			if appointmentID != 3 {
				return domain.Appointment{}, &appointments.NotFoundError{Entity: appointments.EntityAppointment}
			}
			return domain.Appointment{
				ID:     3,
				Date:   domain.NewDate(2025, time.March, 1),
				Time:   domain.ClockTime{Hour: 9},
				Status: domain.StatusScheduled,
			}, nil
		},
	}, quietLogger()))
	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	client := NewAppointmentsServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var header metadata.MD
	resp, err := client.GetAppointment(ctx, wrapperspb.Int64(3), grpc.Header(&header))
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if resp.AsMap()["time"] != "09:00:00" {
		t.Fatalf("response = %v", resp.AsMap())
	}
	if len(header.Get(RequestIDMetadataKey)) == 0 {
		t.Fatalf("expected request id header, got %v", header)
	}

	_, err = client.GetAppointment(ctx, wrapperspb.Int64(4))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.NotFound)
	}
}
