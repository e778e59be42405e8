package reconcile

import (
	"fmt"
	"reflect"
)

// A view is an immutable description of one position in the tree: a type tag
// (the concrete Go type), an optional key, and opaque configuration carried by
// the concrete struct. Views are produced fresh on every expansion and never
// mutated.
//
// Every view implements exactly one of the kind interfaces below. The kind
// selects the element behavior at inflate time.
type View interface {
	ViewKey() Key
}

// expands to a single optional child view. Pure function of the view and the
// build context.
type StatelessView interface {
	View
	Expand(ctx *BuildContext) View
}

// owns mutable state that survives updates. The state object is created once
// when the element mounts and lives until unmount.
type StatefulView interface {
	View
	CreateState() ViewState
}

type ViewState interface {
	Expand(ctx *BuildContext) View
}

// optional state lifecycle hooks
type StateIniter interface {
	InitState(ctx *BuildContext)
}

type StateViewUpdater interface {
	ViewUpdated(oldView View)
}

type StateDisposer interface {
	Dispose()
}

// pass-through provider of ambient data. Descendants read the value through
// BuildContext.DependOnAmbient and are re-expanded when a provider update
// reports UpdateShouldNotify.
type AmbientView interface {
	View
	AmbientTag() string
	AmbientValue() any
	UpdateShouldNotify(oldView AmbientView) bool
	Child() View
}

// owns a render handle in the downstream render tree and zero or more
// ordered children
type RenderView interface {
	View
	Children() []View
	CreateRenderHandle(ctx *BuildContext) *RenderHandle
	UpdateRenderHandle(ctx *BuildContext, handle *RenderHandle)
}

// update-compatible: same concrete type and matching keys. Two unkeyed views
// are compatible, position decides between them.
func canUpdate(oldView View, newView View) bool {
	if oldView == nil || newView == nil {
		return false
	}
	if reflect.TypeOf(oldView) != reflect.TypeOf(newView) {
		return false
	}
	oldKey := oldView.ViewKey()
	newKey := newView.ViewKey()
	if oldKey.Kind == KeyNone && newKey.Kind == KeyNone {
		return true
	}
	return keysMatch(oldKey, newKey)
}

// pointer identity only. Value views are always re-applied.
func sameView(a View, b View) bool {
	if a == nil || b == nil {
		return false
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Kind() != reflect.Pointer || bv.Kind() != reflect.Pointer {
		return false
	}
	return av.Pointer() == bv.Pointer()
}

func viewTypeTag(view View) string {
	if view == nil {
		return "nil"
	}
	return reflect.TypeOf(view).String()
}

// substituted for a subtree whose expansion panicked, so one bad subtree
// cannot corrupt the rest of the frame. Renders as a leaf handle carrying the
// error text.
type BrokenView struct {
	Err error
}

func (self *BrokenView) ViewKey() Key {
	return Key{}
}

func (self *BrokenView) Children() []View {
	return nil
}

func (self *BrokenView) CreateRenderHandle(ctx *BuildContext) *RenderHandle {
	return NewRenderHandle("broken", fmt.Sprintf("%v", self.Err))
}

func (self *BrokenView) UpdateRenderHandle(ctx *BuildContext, handle *RenderHandle) {
	handle.Config = fmt.Sprintf("%v", self.Err)
}
