// Package auth implements the shared-secret gate in front of every store
// operation.
package auth

// Gate compares caller-supplied secrets against the one configured key.
// There are no sessions or tokens; a request either carries the key or it
// does not.
type Gate struct {
	key string
}

func NewGate(key string) *Gate {
	return &Gate{key: key}
}

// Allow reports whether the supplied secret matches the configured one.
// An empty supplied secret never matches.
func (g *Gate) Allow(key string) bool {
	return key != "" && key == g.key
}
