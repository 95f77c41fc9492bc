package requestid

import (
	"context"

	"requestid-middleware/internal/pipeline"
)

// Key is the Env key the identifier is stored under.
const Key = "owin.RequestId"

// Observer is told about every stamping decision. generated is false when the
// request already carried an identifier.
type Observer interface {
	Stamped(ctx context.Context, id string, generated bool)
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(ctx context.Context, id string, generated bool)

func (f ObserverFunc) Stamped(ctx context.Context, id string, generated bool) {
	f(ctx, id, generated)
}

type Option func(*stamp)

// WithObserver adds o to the observers notified before delegation.
func WithObserver(o Observer) Option {
	return func(s *stamp) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

type stamp struct {
	gen       Generator
	observers []Observer
}

// TrySet returns a middleware that stores gen() under Key unless the Env
// already holds a non-nil value there. gen is called at most once per request
// and never when a value is present. The downstream result is returned as is.
//
// TrySet panics if gen is nil.
func TrySet(gen Generator, opts ...Option) pipeline.Middleware {
	if gen == nil {
		panic("requestid: nil generator")
	}
	s := &stamp{gen: gen}
	for _, opt := range opts {
		opt(s)
	}

	return func(next pipeline.Handler) pipeline.Handler {
		return pipeline.HandlerFunc(func(ctx context.Context, env pipeline.Env) error {
			if v, ok := env.Lookup(Key); ok && v != nil {
				s.notify(ctx, v, false)
				return next.Handle(ctx, env)
			}
			id := s.gen()
			env.Set(Key, id)
			s.notify(ctx, id, true)
			return next.Handle(ctx, env)
		})
	}
}

func (s *stamp) notify(ctx context.Context, v any, generated bool) {
	if len(s.observers) == 0 {
		return
	}
	id, _ := v.(string)
	for _, o := range s.observers {
		o.Stamped(ctx, id, generated)
	}
}

// TrySetSequential stamps the next value of c.
func TrySetSequential(c *Counter, opts ...Option) pipeline.Middleware {
	return TrySet(Sequential(c), opts...)
}

// TrySetSequentialWithPrefix stamps "<prefix>-<n>" using c.
func TrySetSequentialWithPrefix(c *Counter, prefix string, opts ...Option) (pipeline.Middleware, error) {
	gen, err := SequentialWithPrefix(c, prefix)
	if err != nil {
		return nil, err
	}
	return TrySet(gen, opts...), nil
}

// TrySetRandom stamps a random UUID.
func TrySetRandom(opts ...Option) pipeline.Middleware {
	return TrySet(Random(), opts...)
}

// FromEnv returns the identifier stored in env, if it is a non-empty string.
func FromEnv(env pipeline.Env) (string, bool) {
	return pipeline.String(env, Key)
}
