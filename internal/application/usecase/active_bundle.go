package usecase

import (
	"sync/atomic"

	"go.opentelemetry.io/otel"

	"github.com/mkdev28/Cropp/internal/domain/bundle"
)

var tracer = otel.Tracer("github.com/mkdev28/Cropp/internal/application/usecase")

// ActiveBundle holds the bundle requests are scored with. Readers take a
// snapshot with Load; activation replaces it atomically, so a request in
// flight keeps scoring against the bundle it started with.
type ActiveBundle struct {
	current atomic.Pointer[bundle.Bundle]
}

// NewActiveBundle creates a holder, optionally seeded with a bundle.
func NewActiveBundle(initial *bundle.Bundle) *ActiveBundle {
	a := &ActiveBundle{}
	if initial != nil {
		a.current.Store(initial)
	}
	return a
}

// Load returns the current bundle, or nil when none is active.
func (a *ActiveBundle) Load() *bundle.Bundle {
	return a.current.Load()
}

// Swap installs b and returns the bundle it replaced.
func (a *ActiveBundle) Swap(b *bundle.Bundle) *bundle.Bundle {
	return a.current.Swap(b)
}

// Ready reports whether a fitted bundle is active.
func (a *ActiveBundle) Ready() bool {
	return a.current.Load().Ready()
}
