package pipeline

// Env is the per-request key/value store shared by every unit in a pipeline.
// The host owns it for the lifetime of one request.
type Env interface {
	// Lookup reports the value stored under key and whether the key is present.
	// A present key may still hold a nil value.
	Lookup(key string) (any, bool)
	Set(key string, v any)
}

// MapEnv is the default Env backed by a plain map. It is not safe for
// concurrent use; one request owns one MapEnv.
type MapEnv map[string]any

func (e MapEnv) Lookup(key string) (any, bool) {
	v, ok := e[key]
	return v, ok
}

func (e MapEnv) Set(key string, v any) {
	e[key] = v
}

// String returns the value under key if it is a non-empty string.
func String(env Env, key string) (string, bool) {
	if env == nil {
		return "", false
	}
	v, ok := env.Lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
