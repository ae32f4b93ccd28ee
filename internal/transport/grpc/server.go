// grpc поднимает служебный gRPC-сервер: стандартный grpc.health.v1.Health
// (для оркестратора и балансировщиков), метрики grpc_prometheus и
// reflection в local/dev.
//
// Статус health:
//   - NOT_SERVING до первой успешной проверки хранилища;
//   - SERVING, пока проверки проходят;
//   - NOT_SERVING после Shutdown.
package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/local-auth/internal/interceptors"
)

// ServiceName: имя сервиса в health-ответах (помимо пустого "").
const ServiceName = "auth.v1.AuthService"

// Options: параметры gRPC-сервера.
type Options struct {
	Logger     *slog.Logger
	Timeout    time.Duration
	Reflection bool
	// Metrics включает grpc_prometheus для сервера.
	Metrics bool
}

// Server: gRPC-сервер со health-сервисом.
type Server struct {
	srv     *grpc.Server
	health  *health.Server
	log     *slog.Logger
	serving atomic.Bool
}

// New собирает сервер с цепочкой интерсепторов
// Recover -> Logging -> WithTimeout -> (prometheus).
func New(opts Options) *Server {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	unary := []grpc.UnaryServerInterceptor{
		interceptors.Recover(l),
		interceptors.UnaryLoggingInterceptor(l),
		interceptors.WithTimeout(opts.Timeout),
	}
	var stream []grpc.StreamServerInterceptor

	if opts.Metrics {
		grpc_prometheus.EnableHandlingTimeHistogram()
		unary = append(unary, grpc_prometheus.UnaryServerInterceptor)
		stream = append(stream, grpc_prometheus.StreamServerInterceptor)
	}

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(stream...),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	if opts.Reflection {
		reflection.Register(srv)
	}

	if opts.Metrics {
		grpc_prometheus.Register(srv)
	}

	s := &Server{srv: srv, health: hs, log: l}
	s.SetServing(false)

	return s
}

// SetServing переключает статус health для "" и ServiceName.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}

	if prev := s.serving.Swap(ok); prev != ok {
		s.log.Info("grpc_health_status", slog.String("status", st.String()))
	}

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serving сообщает текущий статус.
func (s *Server) Serving() bool { return s.serving.Load() }

// WatchReadiness вызывает check каждые period и выставляет статус health по
// результату. Первая проверка выполняется сразу. Возвращается после ctx.Done().
func (s *Server) WatchReadiness(ctx context.Context, check func(context.Context) error, period time.Duration) {
	if period <= 0 {
		period = 5 * time.Second
	}

	probe := func() {
		pctx, cancel := context.WithTimeout(ctx, period)
		defer cancel()

		err := check(pctx)
		if err != nil && ctx.Err() == nil {
			s.log.Warn("readiness_check_failed", slog.String("err", err.Error()))
		}
		if ctx.Err() == nil {
			s.SetServing(err == nil)
		}
	}

	probe()

	t := time.NewTicker(period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			probe()
		}
	}
}

// Serve обслуживает lis до Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	const op = "transport.grpc.Serve"

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Shutdown переводит health в NOT_SERVING и останавливает сервер;
// по истечении ctx соединения закрываются принудительно.
func (s *Server) Shutdown(ctx context.Context) {
	s.SetServing(false)
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("grpc_stopped")
	case <-ctx.Done():
		s.log.Warn("grpc_force_stop")
		s.srv.Stop()
	}
}
