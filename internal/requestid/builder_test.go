package requestid

import (
	"context"
	"testing"

	"requestid-middleware/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUse_AppendsOneAndReturnsBuilder(t *testing.T) {
	b := pipeline.NewBuilder(nil)
	c := NewCounter()

	out := UseRandom(UseSequential(Use(b, func() string { return "x" }), c))
	assert.Same(t, b, out)
	assert.Equal(t, 3, b.Len())

	out, err := UseSequentialWithPrefix(b, c, "req")
	require.NoError(t, err)
	assert.Same(t, b, out)
	assert.Equal(t, 4, b.Len())
}

func TestUseSequentialWithPrefix_BlankRegistersNothing(t *testing.T) {
	for _, prefix := range []string{"", " "} {
		b := pipeline.NewBuilder(nil)
		out, err := UseSequentialWithPrefix(b, NewCounter(), prefix)
		require.ErrorIs(t, err, ErrInvalidConfiguration)
		assert.Same(t, b, out)
		assert.Zero(t, b.Len())
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	for name, register := range map[string]func(*testing.T, *pipeline.Builder) *pipeline.Builder{
		"sequential": func(_ *testing.T, b *pipeline.Builder) *pipeline.Builder { return UseSequential(b, NewCounter()) },
		"prefixed": func(t *testing.T, b *pipeline.Builder) *pipeline.Builder {
			out, err := UseSequentialWithPrefix(b, NewCounter(), "req")
			require.NoError(t, err)
			return out
		},
		"random": func(_ *testing.T, b *pipeline.Builder) *pipeline.Builder { return UseRandom(b) },
		"custom": func(_ *testing.T, b *pipeline.Builder) *pipeline.Builder {
			return Use(b, func() string { return "custom-id" })
		},
	} {
		t.Run(name, func(t *testing.T) {
			var observed string
			h := register(t, pipeline.NewBuilder(nil)).Build(pipeline.HandlerFunc(func(_ context.Context, env pipeline.Env) error {
				observed, _ = FromEnv(env)
				return nil
			}))

			require.NoError(t, h.Handle(context.Background(), pipeline.MapEnv{}))
			assert.NotEmpty(t, observed)

			observed = ""
			require.NoError(t, h.Handle(context.Background(), pipeline.MapEnv{Key: "abc"}))
			assert.Equal(t, "abc", observed)
		})
	}
}
