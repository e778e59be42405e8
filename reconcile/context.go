package reconcile

import (
	"reflect"
)

// handed to view behaviors during expansion. One context per element, stable
// for the element's lifetime, so state objects may retain it for
// self-initiated rebuilds.
type BuildContext struct {
	element *Element
}

func (self *BuildContext) ElementId() Id {
	return self.element.id
}

// the element's current view. For a stateful element this is how the state
// object sees the latest configuration.
func (self *BuildContext) View() View {
	return self.element.view
}

// requests a rebuild of this element in the next flush. Calling this from
// inside the element's own expansion is a programming error fault.
func (self *BuildContext) MarkDirty() {
	self.element.markDirty()
}

// reads the nearest ambient value for a tag and registers this element as a
// dependent: a provider update that reports UpdateShouldNotify re-expands
// this element. Returns nil and false when no provider is in scope.
func (self *BuildContext) DependOnAmbient(tag string) (any, bool) {
	provider := self.ambientProvider(tag)
	if provider == nil {
		return nil, false
	}
	provider.behavior.(*ambientBehavior).dependents[self.element.id] = true
	self.element.ambientDeps[provider.id] = true
	return provider.view.(AmbientView).AmbientValue(), true
}

// reads without registering a dependency
func (self *BuildContext) ReadAmbient(tag string) (any, bool) {
	provider := self.ambientProvider(tag)
	if provider == nil {
		return nil, false
	}
	return provider.view.(AmbientView).AmbientValue(), true
}

func (self *BuildContext) ambientProvider(tag string) *Element {
	providerId, ok := self.element.ambientIndex[tag]
	if !ok {
		return nil
	}
	return self.element.tree.elements[providerId]
}

// read-only tree navigation: the nearest ancestor view with the same
// concrete type as the prototype
func (self *BuildContext) AncestorView(prototype View) View {
	tag := reflect.TypeOf(prototype)
	tree := self.element.tree
	for parent := tree.elements[self.element.parentId]; parent != nil; parent = tree.elements[parent.parentId] {
		if reflect.TypeOf(parent.view) == tag {
			return parent.view
		}
	}
	return nil
}
