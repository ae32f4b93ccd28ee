package interceptors

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/local-auth/internal/pkg/log"
)

type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func TestUnaryLogging_UsesIncomingRequestID(t *testing.T) {
	h := &capHandler{}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "rid-123"))
	ctx = peer.NewContext(ctx, &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50051}})

	info := &grpc.UnaryServerInfo{FullMethod: "/svc.Test/Do"}

	var ctxLogger *slog.Logger
	resp, err := UnaryLoggingInterceptor(slog.New(h))(ctx, "req", info, func(ctx context.Context, _ any) (any, error) {
		ctxLogger = log.From(ctx)
		time.Sleep(2 * time.Millisecond)
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.NotSame(t, slog.Default(), ctxLogger)

	require.Equal(t, "grpc", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, "rid-123", h.attrs["request_id"])
	require.Equal(t, info.FullMethod, h.attrs["method"])
	require.Equal(t, "127.0.0.1:50051", h.attrs["peer"])
	require.Equal(t, "OK", h.attrs["code"])

	d, ok := h.attrs["dur"].(time.Duration)
	require.True(t, ok)
	require.Greater(t, d, time.Duration(0))
}

func TestUnaryLogging_GeneratesUUID_AndLogsCode(t *testing.T) {
	h := &capHandler{}
	info := &grpc.UnaryServerInfo{FullMethod: "/svc.Test/Fail"}

	_, err := UnaryLoggingInterceptor(slog.New(h))(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.InvalidArgument, "bad input")
	})
	require.Error(t, err)

	require.Equal(t, "InvalidArgument", h.attrs["code"])
	require.Equal(t, "-", h.attrs["peer"])

	rid, _ := h.attrs["request_id"].(string)
	_, parseErr := uuid.Parse(rid)
	require.NoError(t, parseErr)
}

func TestUnaryLogging_InternalAtError_AndLongRequestIDReplaced(t *testing.T) {
	h := &capHandler{}
	long := strings.Repeat("r", 129)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", long))

	info := &grpc.UnaryServerInfo{FullMethod: "/svc.Test/Boom"}
	_, err := UnaryLoggingInterceptor(slog.New(h))(ctx, "req", info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.Internal, "internal error")
	})
	require.Error(t, err)

	require.Equal(t, slog.LevelError, h.lastLvl)
	rid, _ := h.attrs["request_id"].(string)
	require.NotEqual(t, long, rid)
	_, parseErr := uuid.Parse(rid)
	require.NoError(t, parseErr)
}

func TestUnaryLogging_HealthProbesAtDebug(t *testing.T) {
	h := &capHandler{}
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err := UnaryLoggingInterceptor(slog.New(h))(context.Background(), "req", info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, h.lastLvl)
}

func TestRecover_PanicToInternal(t *testing.T) {
	h := &capHandler{}
	info := &grpc.UnaryServerInfo{FullMethod: "/svc.Test/Panic"}

	resp, err := Recover(slog.New(h))(context.Background(), "req", info, func(context.Context, any) (any, error) {
		panic("boom")
	})

	require.Nil(t, resp)
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), "boom")

	require.Equal(t, slog.LevelError, h.lastLvl)
	require.Equal(t, "panic_recovered", h.lastMsg)
	require.Equal(t, info.FullMethod, h.attrs["method"])
	require.NotEmpty(t, h.attrs["panic"])

	stack, ok := h.attrs["stack"].(string)
	require.True(t, ok)
	require.NotEmpty(t, stack)
}

func TestRecover_PrefersContextLogger(t *testing.T) {
	base, inCtx := &capHandler{}, &capHandler{}
	ctx := log.Into(context.Background(), slog.New(inCtx))

	_, _ = Recover(slog.New(base))(ctx, "req", &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(context.Context, any) (any, error) {
		panic("boom")
	})

	require.Equal(t, "panic_recovered", inCtx.lastMsg)
	require.Empty(t, base.lastMsg)
}

func TestRecover_NoPanic_PassThrough(t *testing.T) {
	h := &capHandler{}

	resp, err := Recover(slog.New(h))(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/x/OK"}, func(context.Context, any) (any, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, "ok", resp)
	require.Empty(t, h.lastMsg)
}

func TestWithTimeout_SetsDeadline(t *testing.T) {
	const d = 30 * time.Millisecond
	start := time.Now()

	_, err := WithTimeout(d)(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/x/Sleep"}, func(ctx context.Context, _ any) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.GreaterOrEqual(t, time.Since(start), d)
}

func TestWithTimeout_KeepsExistingDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	want, _ := parent.Deadline()

	var got time.Time
	_, err := WithTimeout(time.Second)(parent, "req", &grpc.UnaryServerInfo{FullMethod: "/x/DL"}, func(ctx context.Context, _ any) (any, error) {
		got, _ = ctx.Deadline()
		return "ok", nil
	})

	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestWithTimeout_ZeroIsPassThrough(t *testing.T) {
	_, err := WithTimeout(0)(context.Background(), "req", &grpc.UnaryServerInfo{FullMethod: "/x/None"}, func(ctx context.Context, _ any) (any, error) {
		_, has := ctx.Deadline()
		require.False(t, has)
		return "ok", nil
	})

	require.NoError(t, err)
}
