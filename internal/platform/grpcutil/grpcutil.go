package grpcutil

import (
	"time"

	"requestid-middleware/internal/pipeline"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

// ServerOptions returns keepalives, OTel tracing and the request id
// interceptors (stamp first, then request logging).
func ServerOptions(log *zap.Logger, b *pipeline.Builder) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 2 * time.Minute,
			Time:                  2 * time.Hour,
			Timeout:               20 * time.Second,
		}),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(UnaryStamp(b), requestLogUnary(log)),
		grpc.ChainStreamInterceptor(StreamStamp(b), requestLogStream(log)),
	}
}
