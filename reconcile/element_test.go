package reconcile

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLifecycleTransitions(t *testing.T) {
	tree := AttachRoot(label(Key{}, "root"), nil)

	el := newElement(tree, wrap(Key{}, nil))
	assert.Equal(t, lifecycleInitial, el.state)

	// every transition out of the wrong state is a fault
	expectInvariant(t, func() { el.update(wrap(Key{}, nil)) })
	expectInvariant(t, func() { el.deactivate() })
	expectInvariant(t, func() { el.activate() })
	expectInvariant(t, func() { el.unmount() })

	el.mount(nil, Slot{})
	assert.Equal(t, lifecycleActive, el.state)
	expectInvariant(t, func() { el.mount(nil, Slot{}) })
	expectInvariant(t, func() { el.activate() })
	expectInvariant(t, func() { el.unmount() })

	el.update(wrap(Key{}, nil))
	assert.Equal(t, lifecycleActive, el.state)
	// incompatible view is a fault, not a silent replace
	expectInvariant(t, func() { el.update(label(Key{}, "x")) })

	el.deactivate()
	assert.Equal(t, lifecycleInactive, el.state)
	expectInvariant(t, func() { el.deactivate() })
	expectInvariant(t, func() { el.update(wrap(Key{}, nil)) })

	el.activate()
	assert.Equal(t, lifecycleActive, el.state)

	el.deactivate()
	el.unmount()
	assert.Equal(t, lifecycleDefunct, el.state)
	// defunct is terminal
	expectInvariant(t, func() { el.mount(nil, Slot{}) })
	expectInvariant(t, func() { el.update(wrap(Key{}, nil)) })
	expectInvariant(t, func() { el.deactivate() })
	expectInvariant(t, func() { el.activate() })
	expectInvariant(t, func() { el.unmount() })
}

func TestStateDisposedOnUnmount(t *testing.T) {
	k := ValueKey("item", "1")
	tree := AttachRoot(wrap(Key{}, counter(k, 0)), nil)

	id := keyedCounterId(tree, k)
	state := counterState(tree, id)

	tree.UpdateRoot(wrap(Key{}, nil))
	assert.Equal(t, false, state.disposed)
	tree.Finalize()
	assert.Equal(t, true, state.disposed)
	assert.Equal(t, nil, tree.Element(id))
}

func TestGlobalKeyReparenting(t *testing.T) {
	gk := GlobalKey()
	build := func(left bool) View {
		moving := counter(gk, 5)
		if left {
			return box(Key{},
				wrap(ValueKey("side", "l"), moving),
				wrap(ValueKey("side", "r"), nil),
			)
		}
		return box(Key{},
			wrap(ValueKey("side", "l"), nil),
			wrap(ValueKey("side", "r"), moving),
		)
	}

	renderTree := newRecordingRenderTree()
	tree := AttachRoot(build(true), renderTree)

	id := keyedCounterId(tree, gk)
	counterState(tree, id).Increment()
	counterState(tree, id).Increment()
	tree.Flush()
	assert.Equal(t, 7, counterState(tree, id).count)

	// the element moves to a different parent without re-creation
	tree.UpdateRoot(build(false))
	assert.Equal(t, id, keyedCounterId(tree, gk))
	assert.Equal(t, 7, counterState(tree, id).count)

	movedEl := tree.Element(id)
	rightWrap := findElement(tree, func(v View) bool {
		w, ok := v.(*testWrap)
		return ok && keysMatch(w.key, ValueKey("side", "r"))
	})
	assert.Equal(t, rightWrap.Id(), movedEl.ParentId())

	// the reclaimed element left the inactive set, nothing unmounts it
	tree.Finalize()
	assert.NotEqual(t, nil, tree.Element(id))
	assert.Equal(t, 7, counterState(tree, id).count)
}

func TestDuplicateGlobalKeyFault(t *testing.T) {
	gk := GlobalKey()
	expectInvariant(t, func() {
		AttachRoot(box(Key{},
			wrap(ValueKey("side", "l"), counter(gk, 0)),
			wrap(ValueKey("side", "r"), counter(gk, 0)),
		), nil)
	})
}

func TestAmbientPropagation(t *testing.T) {
	seen := []any{}
	reader := &testReader{
		tag:  "theme",
		seen: &seen,
	}
	build := func(value string) View {
		return &testAmbient{
			tag:   "theme",
			value: value,
			child: wrap(Key{}, reader),
		}
	}

	tree := AttachRoot(build("light"), nil)
	assert.Equal(t, []any{"light"}, seen)

	// a provider update that should notify re-expands the dependent
	tree.UpdateRoot(build("dark"))
	tree.Flush()
	assert.Equal(t, []any{"light", "dark"}, seen)

	// same value, no notification, no re-expansion
	tree.UpdateRoot(build("dark"))
	tree.Flush()
	assert.Equal(t, []any{"light", "dark"}, seen)
}

func TestAmbientUnregisteredOnDeactivate(t *testing.T) {
	seen := []any{}
	reader := &testReader{
		tag:  "theme",
		seen: &seen,
	}
	build := func(value string, withReader bool) View {
		var child View
		if withReader {
			child = wrap(ValueKey("slot", "reader"), reader)
		}
		return &testAmbient{
			tag:   "theme",
			value: value,
			child: child,
		}
	}

	tree := AttachRoot(build("light", true), nil)
	assert.Equal(t, 1, len(seen))

	tree.UpdateRoot(build("light", false))
	tree.Finalize()

	// the dropped reader no longer observes provider updates
	tree.UpdateRoot(build("dark", false))
	tree.Flush()
	assert.Equal(t, 1, len(seen))
}

func TestAncestorView(t *testing.T) {
	var found View
	effect := &testEffect{
		expand: func(ctx *BuildContext) View {
			found = ctx.AncestorView(&testBox{})
			return nil
		},
	}
	tree := AttachRoot(box(Key{}, wrap(Key{}, effect)), nil)

	rootView := tree.Element(tree.RootId()).View()
	assert.Equal(t, rootView, found)
}

func TestReadAmbientDoesNotRegister(t *testing.T) {
	seen := 0
	var got any
	effect := &testEffect{
		expand: func(ctx *BuildContext) View {
			value, ok := ctx.ReadAmbient("theme")
			assertOk(ok)
			got = value
			seen += 1
			return nil
		},
	}
	build := func(value string) View {
		return &testAmbient{
			tag:   "theme",
			value: value,
			child: wrap(Key{}, effect),
		}
	}

	tree := AttachRoot(build("light"), nil)
	assert.Equal(t, 1, seen)
	assert.Equal(t, "light", got)

	// no dependency was registered, the reader is not re-expanded
	tree.UpdateRoot(build("dark"))
	tree.Flush()
	assert.Equal(t, 1, seen)
}

func assertOk(ok bool) {
	if !ok {
		panic("expected an ambient provider in scope")
	}
}
