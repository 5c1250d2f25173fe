// Package grpcserver runs the operations endpoint: gRPC health checks
// reflecting whether the card store is reachable.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CardsService is the health service name reported for the card API.
const CardsService = "cardkeeper.v1.Cards"

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ops is the gRPC operations server.
type Ops struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

// NewOps builds the server with recover and logging interceptors.
// Every service starts NOT_SERVING.
func NewOps(log *zap.Logger) *Ops {
	log = log.Named("ops")
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	o := &Ops{srv: s, health: hs, log: log}
	o.SetServing(false)
	return o
}

// SetServing flips the overall and card service status.
func (o *Ops) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	o.health.SetServingStatus("", st)
	o.health.SetServingStatus(CardsService, st)
}

// Watch pings p every interval and mirrors the result into the health status
// until ctx is done. A non-positive interval disables watching.
func (o *Ops) Watch(ctx context.Context, p Pinger, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	up := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, every)
			err := p.Ping(pctx)
			cancel()
			if ctx.Err() != nil {
				return
			}
			if (err == nil) != up {
				up = err == nil
				o.log.Warn("store reachability changed", zap.Bool("up", up), zap.Error(err))
			}
			o.SetServing(up)
		}
	}
}

// Serve accepts connections on lis until Stop.
func (o *Ops) Serve(lis net.Listener) error {
	return o.srv.Serve(lis)
}

// Stop reports NOT_SERVING and drains connections, forcing close after timeout.
func (o *Ops) Stop(timeout time.Duration) {
	o.health.Shutdown()
	done := make(chan struct{})
	go func() {
		o.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		o.srv.Stop()
	}
}
