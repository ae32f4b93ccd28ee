package interceptors

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/local-auth/internal/pkg/log"
)

// maxRequestIDLen совпадает с ограничением HTTP-мидлвара RequestID.
const maxRequestIDLen = 128

// UnaryLoggingInterceptor кладёт в контекст логгер с request_id, методом
// и peer и пишет одну запись "grpc" с кодом ответа и длительностью.
// request_id берётся из metadata x-request-id, иначе генерируется UUID.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		var rid string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 && v[0] != "" && len(v[0]) <= maxRequestIDLen {
				rid = v[0]
			}
		}
		if rid == "" {
			rid = uuid.NewString()
		}

		peerAddr := "-"
		if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
			peerAddr = p.Addr.String()
		}

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr),
		)

		resp, err := handler(log.Into(ctx, l), req)

		code := status.Code(err)

		// Пробы health вызываются часто: успешные пишем на debug.
		level := slog.LevelInfo
		switch {
		case err == nil && isHealthMethod(info.FullMethod):
			level = slog.LevelDebug
		case code == codes.Internal || code == codes.Unknown:
			level = slog.LevelError
		}

		l.Log(ctx, level, "grpc",
			slog.String("code", code.String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

func isHealthMethod(m string) bool {
	return m == "/grpc.health.v1.Health/Check" || m == "/grpc.health.v1.Health/Watch"
}
