package component

import (
	"github.com/jmylchreest/umbra/internal/style"
)

// StyleInjector applies one shared stylesheet to a component's render root.
// It holds no per-component state and can be shared by every component.
type StyleInjector struct {
	shared *style.Shared
}

// NewStyleInjector returns an injector for shared.
func NewStyleInjector(shared *style.Shared) *StyleInjector {
	return &StyleInjector{shared: shared}
}

// Attach adopts the sheet into root. Repeating it is harmless.
func (i *StyleInjector) Attach(root *style.Root) {
	if i == nil || i.shared == nil {
		return
	}
	root.Adopt(i.shared)
}
