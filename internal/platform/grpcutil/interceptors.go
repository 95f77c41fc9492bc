package grpcutil

import (
	"context"
	"errors"
	"strings"
	"time"

	"requestid-middleware/internal/pipeline"
	"requestid-middleware/internal/platform/logging"
	"requestid-middleware/internal/requestid"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// MetadataKey carries the request id in incoming and response header metadata.
const MetadataKey = "x-request-id"

// Env keys populated by the stamping interceptors.
const (
	EnvMethod   = "grpc.Method"
	EnvMetadata = "grpc.Metadata"
	EnvStream   = "grpc.Stream"

	envUnaryRequest  = "grpc.Request"
	envUnaryHandler  = "grpc.Handler"
	envUnaryResponse = "grpc.Response"
	envStreamServer  = "grpc.Server"
	envStreamHandler = "grpc.StreamHandler"
)

var errNotHosted = errors.New("grpcutil: env was not created by a stamping interceptor")

// UnaryStamp runs the pipeline built from b before each unary RPC. The env
// starts with the request id from incoming metadata, if any. Once the
// pipeline reaches the handler, the id is placed on the context and sent back
// as response header metadata.
func UnaryStamp(b *pipeline.Builder) grpc.UnaryServerInterceptor {
	if b == nil {
		b = pipeline.NewBuilder(nil)
	}
	h := b.Build(pipeline.HandlerFunc(callUnary))

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		env := newEnv(ctx, info.FullMethod)
		env[envUnaryRequest] = req
		env[envUnaryHandler] = handler

		err := h.Handle(ctx, env)
		return env[envUnaryResponse], err
	}
}

// StreamStamp is the streaming counterpart of UnaryStamp.
func StreamStamp(b *pipeline.Builder) grpc.StreamServerInterceptor {
	if b == nil {
		b = pipeline.NewBuilder(nil)
	}
	h := b.Build(pipeline.HandlerFunc(callStream))

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		env := newEnv(ctx, info.FullMethod)
		env[envStreamServer] = srv
		env[EnvStream] = ss
		env[envStreamHandler] = handler
		return h.Handle(ctx, env)
	}
}

func newEnv(ctx context.Context, method string) pipeline.MapEnv {
	env := pipeline.MapEnv{EnvMethod: method}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		env[EnvMetadata] = md
		if rid := strings.TrimSpace(first(md, MetadataKey)); rid != "" {
			env[requestid.Key] = rid
		}
	}
	return env
}

func withRequestID(ctx context.Context, env pipeline.Env) context.Context {
	id, ok := requestid.FromEnv(env)
	if !ok {
		return ctx
	}
	// SetHeader fails outside a real server transport; the id still reaches
	// the handler through ctx.
	_ = grpc.SetHeader(ctx, metadata.Pairs(MetadataKey, id))
	return requestid.WithContext(ctx, id)
}

func callUnary(ctx context.Context, env pipeline.Env) error {
	req, _ := env.Lookup(envUnaryRequest)
	hv, _ := env.Lookup(envUnaryHandler)
	handler, ok := hv.(grpc.UnaryHandler)
	if !ok {
		return errNotHosted
	}
	resp, err := handler(withRequestID(ctx, env), req)
	env.Set(envUnaryResponse, resp)
	return err
}

func callStream(ctx context.Context, env pipeline.Env) error {
	srv, _ := env.Lookup(envStreamServer)
	sv, _ := env.Lookup(EnvStream)
	hv, _ := env.Lookup(envStreamHandler)
	ss, ok := sv.(grpc.ServerStream)
	if !ok {
		return errNotHosted
	}
	handler, ok := hv.(grpc.StreamHandler)
	if !ok {
		return errNotHosted
	}
	return handler(srv, &wrappedStream{ServerStream: ss, ctx: withRequestID(ctx, env)})
}

func requestLogUnary(base *zap.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = zap.NewNop()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		lg := requestLogger(ctx, base).With(zap.String("rpc.method", info.FullMethod))
		resp, err := handler(logging.With(ctx, lg), req)

		lg.Info("rpc",
			zap.String("rpc.code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

func requestLogStream(base *zap.Logger) grpc.StreamServerInterceptor {
	if base == nil {
		base = zap.NewNop()
	}
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx := ss.Context()

		lg := requestLogger(ctx, base).With(
			zap.String("rpc.method", info.FullMethod),
			zap.Bool("rpc.stream", true),
		)
		err := handler(srv, &wrappedStream{ServerStream: ss, ctx: logging.With(ctx, lg)})

		lg.Info("rpc",
			zap.String("rpc.code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return err
	}
}

func requestLogger(ctx context.Context, base *zap.Logger) *zap.Logger {
	lg := logging.Enrich(ctx, base).With(zap.String("rpc.system", "grpc"))
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		lg = lg.With(zap.String("client.addr", p.Addr.String()))
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ua := first(md, "user-agent"); ua != "" {
			lg = lg.With(zap.String("user_agent", ua))
		}
	}
	return lg
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }

func first(md metadata.MD, key string) string {
	vals := md.Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}
