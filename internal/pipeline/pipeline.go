package pipeline

import "context"

// Handler processes one request against its Env.
type Handler interface {
	Handle(ctx context.Context, env Env) error
}

// HandlerFunc adapts an ordinary function into a Handler.
type HandlerFunc func(ctx context.Context, env Env) error

func (f HandlerFunc) Handle(ctx context.Context, env Env) error {
	return f(ctx, env)
}

// Middleware wraps the next Handler in the pipeline.
type Middleware func(next Handler) Handler

// Chain is an ordered list of middleware.
// The first element is treated as the outermost wrapper.
type Chain []Middleware

// Then applies the middleware chain to h and returns the wrapped handler.
// A nil h completes every request with a nil error.
func (c Chain) Then(h Handler) Handler {
	if h == nil {
		h = complete
	}
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		h = c[i](h)
	}
	return h
}

// Append returns a new chain with additional middleware appended (as new innermost entries).
func (c Chain) Append(mw ...Middleware) Chain {
	out := make(Chain, 0, len(c)+len(mw))
	out = append(out, c...)
	out = append(out, mw...)
	return out
}

var complete = HandlerFunc(func(context.Context, Env) error { return nil })
