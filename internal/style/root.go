package style

import (
	"sort"
	"sync"
)

// DarkClass is the class a root carries while the dark variant is active.
const DarkClass = "dark"

// Root is one component's isolated render root: the sheet it adopted and its
// own class list. Roots never share class state.
type Root struct {
	mu      sync.RWMutex
	shared  *Shared
	classes map[string]struct{}
}

// NewRoot creates an empty root with no adopted sheet.
func NewRoot() *Root {
	return &Root{classes: make(map[string]struct{})}
}

// Adopt applies the shared sheet to the root. Adopting the same handle again
// changes nothing.
func (r *Root) Adopt(s *Shared) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shared = s
}

// Adopted reports whether a sheet has been adopted.
func (r *Root) Adopted() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shared != nil
}

// Sheet returns the adopted sheet, or nil.
func (r *Root) Sheet() *Sheet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.shared == nil {
		return nil
	}
	return r.shared.Sheet()
}

// SetDark adds or removes DarkClass.
func (r *Root) SetDark(dark bool) {
	if dark {
		r.AddClass(DarkClass)
	} else {
		r.RemoveClass(DarkClass)
	}
}

// Dark reports whether DarkClass is set.
func (r *Root) Dark() bool {
	return r.HasClass(DarkClass)
}

// AddClass adds a class.
func (r *Root) AddClass(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = struct{}{}
}

// RemoveClass removes a class.
func (r *Root) RemoveClass(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.classes, name)
}

// HasClass reports whether the class is set.
func (r *Root) HasClass(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.classes[name]
	return ok
}

// Classes returns the sorted class list.
func (r *Root) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.classes))
	for c := range r.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Styles returns the variant matching the root's dark class, or nil before
// a sheet is adopted.
func (r *Root) Styles() *Styles {
	sheet := r.Sheet()
	if sheet == nil {
		return nil
	}
	return sheet.Variant(r.Dark())
}

// Render renders strs with the style of class. Before a sheet is adopted the
// text is returned unstyled.
func (r *Root) Render(class string, strs ...string) string {
	return r.Styles().Class(class).Render(strs...)
}
