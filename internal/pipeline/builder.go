package pipeline

// Properties are startup values shared with every registered factory when the
// pipeline is built.
type Properties map[string]any

// Factory produces a Middleware once, at build time.
type Factory func(props Properties) Middleware

// Builder accumulates middleware factories in registration order and composes
// them into a single Handler on Build.
type Builder struct {
	props     Properties
	factories []Factory
}

func NewBuilder(props Properties) *Builder {
	if props == nil {
		props = Properties{}
	}
	return &Builder{props: props}
}

// Use appends f and returns b so registrations can be chained.
func (b *Builder) Use(f Factory) *Builder {
	b.factories = append(b.factories, f)
	return b
}

// Len reports how many factories have been registered.
func (b *Builder) Len() int { return len(b.factories) }

func (b *Builder) Properties() Properties { return b.props }

// Build invokes every factory in registration order and wraps terminal with
// the resulting chain. The first registration is the outermost unit.
func (b *Builder) Build(terminal Handler) Handler {
	chain := make(Chain, 0, len(b.factories))
	for _, f := range b.factories {
		if f == nil {
			continue
		}
		chain = append(chain, f(b.props))
	}
	return chain.Then(terminal)
}
