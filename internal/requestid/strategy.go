package requestid

import (
	"fmt"
	"strings"

	"requestid-middleware/internal/pipeline"
)

// Strategy selects one of the built-in generators.
type Strategy string

const (
	StrategyRandom     Strategy = "random"
	StrategySequential Strategy = "sequential"
	StrategyPrefixed   Strategy = "prefixed"
	StrategyCustom     Strategy = "custom"
)

// ParseStrategy accepts the strategy names used in configuration files.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyRandom, "uuid", "guid":
		return StrategyRandom, nil
	case StrategySequential, "long":
		return StrategySequential, nil
	case StrategyPrefixed:
		return StrategyPrefixed, nil
	case StrategyCustom:
		return StrategyCustom, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, s)
	}
}

// Config describes a generator selection.
type Config struct {
	Strategy Strategy
	// Prefix is required for StrategyPrefixed.
	Prefix string
	// Generator is required for StrategyCustom.
	Generator Generator
}

// NewGenerator builds the generator cfg selects. Sequential strategies draw
// from c, so plain and prefixed generators sharing one Counter share a
// number space.
func NewGenerator(cfg Config, c *Counter) (Generator, error) {
	switch cfg.Strategy {
	case "", StrategyRandom:
		return Random(), nil
	case StrategySequential:
		if c == nil {
			return nil, fmt.Errorf("%w: sequential strategy without a counter", ErrInvalidConfiguration)
		}
		return Sequential(c), nil
	case StrategyPrefixed:
		if c == nil {
			return nil, fmt.Errorf("%w: prefixed strategy without a counter", ErrInvalidConfiguration)
		}
		return SequentialWithPrefix(c, cfg.Prefix)
	case StrategyCustom:
		if cfg.Generator == nil {
			return nil, fmt.Errorf("%w: custom strategy without a generator", ErrInvalidConfiguration)
		}
		return cfg.Generator, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConfiguration, cfg.Strategy)
	}
}

// New returns the stamp middleware cfg selects.
func New(cfg Config, c *Counter, opts ...Option) (pipeline.Middleware, error) {
	gen, err := NewGenerator(cfg, c)
	if err != nil {
		return nil, err
	}
	return TrySet(gen, opts...), nil
}
