// Package keys defines the key-retrieval capability both protocol roles
// depend on. The core borrows key bytes per call and never retains them;
// where the key lives (configuration, a vault, per-request context) is the
// implementation's business.
package keys

import (
	"context"
	"net/http"
)

// Ring resolves the verification key for an inbound request. An empty
// result with a nil error means no key is available for that request.
// Implementations must be safe for concurrent use across requests.
type Ring interface {
	Key(ctx context.Context, r *http.Request) ([]byte, error)
}

// Static is a fixed publisher-side key.
type Static []byte

// Key returns the fixed key bytes.
func (s Static) Key() ([]byte, error) {
	return s, nil
}

// StaticRing returns a Ring that resolves the same key for every request.
func StaticRing(key []byte) Ring {
	return RingFunc(func(ctx context.Context, r *http.Request) ([]byte, error) {
		return key, nil
	})
}

// ringFunc adapts a function to the Ring interface.
type ringFunc func(ctx context.Context, r *http.Request) ([]byte, error)

func (f ringFunc) Key(ctx context.Context, r *http.Request) ([]byte, error) {
	return f(ctx, r)
}

// RingFunc wraps fn as a Ring.
func RingFunc(fn func(ctx context.Context, r *http.Request) ([]byte, error)) Ring {
	return ringFunc(fn)
}

// PathRing selects keys by request path. The map is built once at startup
// and read-only afterwards, which makes it safe for concurrent lookups.
type PathRing struct {
	byPath map[string][]byte
}

// NewPathRing builds a ring over a path→key map. The map is copied.
func NewPathRing(byPath map[string][]byte) *PathRing {
	m := make(map[string][]byte, len(byPath))
	for p, k := range byPath {
		m[p] = k
	}
	return &PathRing{byPath: m}
}

// Key returns the key registered for the request's path, or nil when the
// path has none.
func (pr *PathRing) Key(ctx context.Context, r *http.Request) ([]byte, error) {
	return pr.byPath[r.URL.Path], nil
}
