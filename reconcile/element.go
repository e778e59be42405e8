package reconcile

import (
	"fmt"

	"github.com/golang/glog"

	"golang.org/x/exp/maps"
)

type lifecycleState int

const (
	lifecycleInitial lifecycleState = iota
	lifecycleActive
	lifecycleInactive
	lifecycleDefunct
)

func (self lifecycleState) String() string {
	switch self {
	case lifecycleInitial:
		return "initial"
	case lifecycleActive:
		return "active"
	case lifecycleInactive:
		return "inactive"
	case lifecycleDefunct:
		return "defunct"
	default:
		return fmt.Sprintf("lifecycle(%d)", int(self))
	}
}

// the persistent, tree-resident counterpart of one view. Elements live in the
// tree's flat arena keyed by id; the parent reference is an id, never an
// owning pointer.
type Element struct {
	id   Id
	tree *ElementTree
	ctx  *BuildContext

	view     View
	behavior elementBehavior

	state    lifecycleState
	depth    int
	parentId Id
	childIds []Id
	slot     Slot

	dirty       bool
	inDirtyList bool
	builtEpoch  uint64
	expanding   bool

	// ambient tag -> provider element id, snapshotted from the parent at
	// mount and refreshed on global-key reparenting
	ambientIndex map[string]Id
	// provider element ids this element registered with
	ambientDeps map[Id]bool
}

// behavior kinds form a closed set selected once at construction from the
// view kind. One uniform tree walk, no inheritance.
type elementBehavior interface {
	mount(el *Element)
	update(el *Element, oldView View)
	expandChildren(el *Element)
	slotChanged(el *Element)
	unmount(el *Element)
}

func newElement(tree *ElementTree, view View) *Element {
	el := &Element{
		id:          NewId(),
		tree:        tree,
		view:        view,
		state:       lifecycleInitial,
		ambientDeps: map[Id]bool{},
	}
	el.ctx = &BuildContext{element: el}
	switch view.(type) {
	case StatelessView:
		el.behavior = &statelessBehavior{}
	case StatefulView:
		el.behavior = &statefulBehavior{}
	case AmbientView:
		el.behavior = &ambientBehavior{
			dependents: map[Id]bool{},
		}
	case RenderView:
		el.behavior = &renderBehavior{}
	default:
		invariantf("element: view %T implements none of the view kinds", view)
	}
	return el
}

func (self *Element) Id() Id {
	return self.id
}

func (self *Element) View() View {
	return self.view
}

func (self *Element) Depth() int {
	return self.depth
}

func (self *Element) ParentId() Id {
	return self.parentId
}

func (self *Element) ChildIds() []Id {
	return self.childIds
}

func (self *Element) children() []*Element {
	children := make([]*Element, 0, len(self.childIds))
	for _, childId := range self.childIds {
		if child := self.tree.elements[childId]; child != nil {
			children = append(children, child)
		}
	}
	return children
}

func (self *Element) setChildren(children []*Element) {
	childIds := make([]Id, 0, len(children))
	for _, child := range children {
		if child != nil {
			childIds = append(childIds, child.id)
		}
	}
	self.childIds = childIds
}

func (self *Element) requireState(expected lifecycleState, transition string) {
	if self.state != expected {
		invariantf(
			"lifecycle: %s requires %s, element %s (%s) is %s",
			transition,
			expected,
			self.id,
			viewTypeTag(self.view),
			self.state,
		)
	}
}

// initial -> active. Records parent and slot, computes depth, registers a
// global key, snapshots the ambient index, and runs the first expansion.
func (self *Element) mount(parent *Element, slot Slot) {
	self.requireState(lifecycleInitial, "mount")
	if parent != nil {
		self.parentId = parent.id
		self.depth = parent.depth + 1
		self.ambientIndex = parent.ambientIndexForChildren()
	}
	self.slot = slot
	self.state = lifecycleActive
	self.tree.elements[self.id] = self
	if key := self.view.ViewKey(); key.Kind == KeyGlobal {
		self.tree.registerGlobalKey(key, self)
	}
	self.behavior.mount(self)
	self.rebuild()
}

// active -> active. Replaces the view; the behavior decides whether the
// replacement forces a re-expansion (all current behaviors do).
func (self *Element) update(newView View) {
	self.requireState(lifecycleActive, "update")
	if !canUpdate(self.view, newView) {
		invariantf(
			"lifecycle: update of element %s from %s to incompatible %s",
			self.id,
			viewTypeTag(self.view),
			viewTypeTag(newView),
		)
	}
	oldView := self.view
	self.view = newView
	self.behavior.update(self, oldView)
}

// active -> inactive. Drops ambient registrations. The ambientDeps set is
// retained so activate can restore the registrations on reclaim.
func (self *Element) deactivate() {
	self.requireState(lifecycleActive, "deactivate")
	for providerId := range self.ambientDeps {
		if provider := self.tree.elements[providerId]; provider != nil {
			if ambient, ok := provider.behavior.(*ambientBehavior); ok {
				delete(ambient.dependents, self.id)
			}
		}
	}
	self.state = lifecycleInactive
	self.tree.inactiveElements[self.id] = self
}

// inactive -> active. Only reached when a discarded element is reclaimed via
// a global key and reparented. The element's position and ancestors may have
// changed, so it is unconditionally dirty.
func (self *Element) activate() {
	self.requireState(lifecycleInactive, "activate")
	delete(self.tree.inactiveElements, self.id)
	self.state = lifecycleActive
	for providerId := range self.ambientDeps {
		if provider := self.tree.elements[providerId]; provider != nil {
			if ambient, ok := provider.behavior.(*ambientBehavior); ok {
				ambient.dependents[self.id] = true
			}
		}
	}
	self.markDirty()
}

// inactive -> defunct. The finalize pass unmounts deepest-first, so owned
// children are already defunct when this runs.
func (self *Element) unmount() {
	self.requireState(lifecycleInactive, "unmount")
	self.behavior.unmount(self)
	if key := self.view.ViewKey(); key.Kind == KeyGlobal {
		self.tree.unregisterGlobalKey(key, self)
	}
	self.state = lifecycleDefunct
	delete(self.tree.inactiveElements, self.id)
	delete(self.tree.elements, self.id)
}

func (self *Element) markDirty() {
	if self.state != lifecycleActive {
		return
	}
	if self.expanding {
		invariantf("scheduler: element %s scheduled from inside its own expansion", self.id)
	}
	if self.dirty && self.inDirtyList {
		return
	}
	self.dirty = true
	self.tree.scheduleElement(self)
}

// expand and reconcile children. Used for both scheduled and forced rebuilds.
func (self *Element) rebuild() {
	if self.state != lifecycleActive {
		return
	}
	self.behavior.expandChildren(self)
	self.dirty = false
	self.builtEpoch = self.tree.scheduler.epoch
}

// runs one user expansion callback. A panic that is not an invariant fault is
// recovered locally and the subtree is replaced by a BrokenView, so the flush
// continues with the remaining dirty elements.
func (self *Element) expandViews(expand func() []View) []View {
	self.expanding = true
	defer func() {
		self.expanding = false
	}()

	views, err := func() (views []View, err error) {
		defer func() {
			if r := recover(); r != nil {
				if invariant, ok := r.(*InvariantError); ok {
					panic(invariant)
				}
				if e, ok := r.(error); ok {
					err = e
				} else {
					err = fmt.Errorf("%v", r)
				}
			}
		}()
		return expand(), nil
	}()
	if err != nil {
		glog.Errorf("expansion of %s (%s) failed: %v\n", self.id, viewTypeTag(self.view), err)
		return []View{&BrokenView{Err: err}}
	}
	return views
}

func (self *Element) ambientIndexForChildren() map[string]Id {
	if _, ok := self.behavior.(*ambientBehavior); ok {
		next := maps.Clone(self.ambientIndex)
		if next == nil {
			next = map[string]Id{}
		}
		next[self.view.(AmbientView).AmbientTag()] = self.id
		return next
	}
	return self.ambientIndex
}

func (self *Element) updateDepth(depth int) {
	self.depth = depth
	for _, child := range self.children() {
		child.updateDepth(depth + 1)
	}
}

func (self *Element) updateAmbientIndex(ambientIndex map[string]Id) {
	self.ambientIndex = ambientIndex
	for _, child := range self.children() {
		child.updateAmbientIndex(self.ambientIndexForChildren())
	}
}

func (self *Element) activateRecursively() {
	self.activate()
	for _, child := range self.children() {
		child.activateRecursively()
	}
}

// nearest render ancestor's handle, or nil if this element is above every
// render element
func (self *Element) findRenderOwnerHandle() *RenderHandle {
	for parent := self.tree.elements[self.parentId]; parent != nil; parent = self.tree.elements[parent.parentId] {
		if render, ok := parent.behavior.(*renderBehavior); ok {
			return render.handle
		}
	}
	return nil
}

// nearest own-or-descendant render handle, used as the previous-sibling
// reference in slot tokens. Non-render elements have at most one child.
func renderHandleOf(el *Element) *RenderHandle {
	for el != nil {
		if render, ok := el.behavior.(*renderBehavior); ok {
			return render.handle
		}
		if len(el.childIds) != 1 {
			return nil
		}
		el = el.tree.elements[el.childIds[0]]
	}
	return nil
}

// removes the subtree's top-level render handles from their owner. Called
// when the subtree is dropped from its parent; handle release itself is
// deferred to unmount.
func (self *Element) detachRenderHandles() {
	if render, ok := self.behavior.(*renderBehavior); ok {
		self.tree.renderTree.Remove(render.ownerHandle, render.handle)
		return
	}
	for _, child := range self.children() {
		child.detachRenderHandles()
	}
}

// mirror of detachRenderHandles for global-key reclaim: splice the subtree's
// top-level render handles into the new owner at the current slot
func (self *Element) attachRenderHandles() {
	if render, ok := self.behavior.(*renderBehavior); ok {
		render.ownerHandle = self.findRenderOwnerHandle()
		self.tree.renderTree.Insert(render.ownerHandle, render.handle, self.slot.Previous)
		return
	}
	for _, child := range self.children() {
		child.slot = self.slot
		child.attachRenderHandles()
	}
}

// stateless

type statelessBehavior struct {
}

func (self *statelessBehavior) mount(el *Element) {
}

func (self *statelessBehavior) update(el *Element, oldView View) {
	el.rebuild()
}

func (self *statelessBehavior) expandChildren(el *Element) {
	views := el.expandViews(func() []View {
		if child := el.view.(StatelessView).Expand(el.ctx); child != nil {
			return []View{child}
		}
		return nil
	})
	el.reconcileSingleChild(views)
}

func (self *statelessBehavior) slotChanged(el *Element) {
	forwardSlotToChild(el)
}

func (self *statelessBehavior) unmount(el *Element) {
}

// stateful

type statefulBehavior struct {
	state ViewState
}

func (self *statefulBehavior) mount(el *Element) {
	self.state = el.view.(StatefulView).CreateState()
	if self.state == nil {
		invariantf("element: CreateState of %s returned nil", viewTypeTag(el.view))
	}
	if initer, ok := self.state.(StateIniter); ok {
		initer.InitState(el.ctx)
	}
}

func (self *statefulBehavior) update(el *Element, oldView View) {
	if updater, ok := self.state.(StateViewUpdater); ok {
		updater.ViewUpdated(oldView)
	}
	el.rebuild()
}

func (self *statefulBehavior) expandChildren(el *Element) {
	views := el.expandViews(func() []View {
		if child := self.state.Expand(el.ctx); child != nil {
			return []View{child}
		}
		return nil
	})
	el.reconcileSingleChild(views)
}

func (self *statefulBehavior) slotChanged(el *Element) {
	forwardSlotToChild(el)
}

func (self *statefulBehavior) unmount(el *Element) {
	if disposer, ok := self.state.(StateDisposer); ok {
		disposer.Dispose()
	}
	self.state = nil
}

// ambient

type ambientBehavior struct {
	dependents map[Id]bool
}

func (self *ambientBehavior) mount(el *Element) {
}

func (self *ambientBehavior) update(el *Element, oldView View) {
	if el.view.(AmbientView).UpdateShouldNotify(oldView.(AmbientView)) {
		for _, dependentId := range maps.Keys(self.dependents) {
			if dependent := el.tree.elements[dependentId]; dependent != nil && dependent.state == lifecycleActive {
				dependent.markDirty()
			}
		}
	}
	el.rebuild()
}

func (self *ambientBehavior) expandChildren(el *Element) {
	views := el.expandViews(func() []View {
		if child := el.view.(AmbientView).Child(); child != nil {
			return []View{child}
		}
		return nil
	})
	el.reconcileSingleChild(views)
}

func (self *ambientBehavior) slotChanged(el *Element) {
	forwardSlotToChild(el)
}

func (self *ambientBehavior) unmount(el *Element) {
}

// render

type renderBehavior struct {
	handle      *RenderHandle
	ownerHandle *RenderHandle
}

func (self *renderBehavior) mount(el *Element) {
	view := el.view.(RenderView)
	self.handle = view.CreateRenderHandle(el.ctx)
	if self.handle == nil {
		invariantf("element: CreateRenderHandle of %s returned nil", viewTypeTag(el.view))
	}
	el.tree.renderIndex[self.handle] = el.id
	el.tree.renderTree.Attach(self.handle)
	self.ownerHandle = el.findRenderOwnerHandle()
	el.tree.renderTree.Insert(self.ownerHandle, self.handle, el.slot.Previous)
}

func (self *renderBehavior) update(el *Element, oldView View) {
	el.view.(RenderView).UpdateRenderHandle(el.ctx, self.handle)
	el.rebuild()
}

func (self *renderBehavior) expandChildren(el *Element) {
	views := el.expandViews(func() []View {
		return el.view.(RenderView).Children()
	})
	el.setChildren(el.updateChildren(el.children(), views))
}

func (self *renderBehavior) slotChanged(el *Element) {
	if self.ownerHandle == nil {
		// the root position has no siblings
		return
	}
	el.tree.renderTree.Move(self.ownerHandle, self.handle, el.slot.Previous)
}

func (self *renderBehavior) unmount(el *Element) {
	el.tree.renderTree.Detach(self.handle)
	delete(el.tree.renderIndex, self.handle)
	self.handle = nil
	self.ownerHandle = nil
}

// non-render elements occupy their parent's render slot and forward it to
// their only child
func forwardSlotToChild(el *Element) {
	for _, child := range el.children() {
		el.updateChildSlot(child, el.slot)
	}
}
