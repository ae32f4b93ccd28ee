// deadline: общий для HTTP и gRPC способ ограничить время обработки запроса.
package deadline

import (
	"context"
	"time"
)

func noop() {}

// Ensure возвращает контекст с дедлайном now+d, если у ctx дедлайна нет.
// Уже заданный клиентом дедлайн не меняется; d <= 0 отключает ограничение.
// cancel всегда безопасно вызывать.
func Ensure(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, noop
	}

	if _, ok := ctx.Deadline(); ok {
		return ctx, noop
	}

	return context.WithTimeout(ctx, d)
}
