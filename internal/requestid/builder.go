package requestid

import "requestid-middleware/internal/pipeline"

// Use registers TrySet(gen) on b and returns b.
func Use(b *pipeline.Builder, gen Generator, opts ...Option) *pipeline.Builder {
	return register(b, TrySet(gen, opts...))
}

// UseSequential registers a sequential stamp backed by c.
func UseSequential(b *pipeline.Builder, c *Counter, opts ...Option) *pipeline.Builder {
	return register(b, TrySetSequential(c, opts...))
}

// UseSequentialWithPrefix registers a prefixed sequential stamp backed by c.
// On error nothing is registered.
func UseSequentialWithPrefix(b *pipeline.Builder, c *Counter, prefix string, opts ...Option) (*pipeline.Builder, error) {
	mw, err := TrySetSequentialWithPrefix(c, prefix, opts...)
	if err != nil {
		return b, err
	}
	return register(b, mw), nil
}

// UseRandom registers a random UUID stamp.
func UseRandom(b *pipeline.Builder, opts ...Option) *pipeline.Builder {
	return register(b, TrySetRandom(opts...))
}

func register(b *pipeline.Builder, mw pipeline.Middleware) *pipeline.Builder {
	return b.Use(func(pipeline.Properties) pipeline.Middleware { return mw })
}
