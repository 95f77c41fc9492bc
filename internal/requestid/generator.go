// Package requestid stamps a request identifier into a pipeline Env when one
// is not already present.
package requestid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidConfiguration is returned when a generator or stamp cannot be
// constructed from the supplied options. It is never returned per request.
var ErrInvalidConfiguration = errors.New("requestid: invalid configuration")

// Generator produces a new identifier on every call.
type Generator func() string

// Sequential renders the next value of c in base 10.
// It panics if c is nil.
func Sequential(c *Counter) Generator {
	if c == nil {
		panic("requestid: nil counter")
	}
	return func() string {
		return strconv.FormatInt(c.Next(), 10)
	}
}

// SequentialWithPrefix renders "<prefix>-<n>" where n is the next value of c.
// The prefix must contain a non-whitespace character. It panics if c is nil.
func SequentialWithPrefix(c *Counter, prefix string) (Generator, error) {
	if strings.TrimSpace(prefix) == "" {
		return nil, fmt.Errorf("%w: prefix is empty or whitespace", ErrInvalidConfiguration)
	}
	if c == nil {
		panic("requestid: nil counter")
	}
	return func() string {
		return prefix + "-" + strconv.FormatInt(c.Next(), 10)
	}, nil
}

// Random returns a random (v4) UUID in its canonical form on each call.
func Random() Generator {
	return uuid.NewString
}
