package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"github.com/pribylovaa/local-auth/internal/pkg/deadline"
)

// WithTimeout: серверный аналог HTTP-мидлвара Timeout:
// дедлайн клиента сохраняется, иначе вызов ограничивается d.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, cancel := deadline.Ensure(ctx, d)
		defer cancel()

		return handler(ctx, req)
	}
}
