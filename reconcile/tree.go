package reconcile

// The full persistent structure: the element arena, the root, the global key
// registry, the render-handle index, the inactive set, and the build
// scheduler. The tree and the scheduler are exclusively owned by one logical
// thread; Schedule is the sole entry point that external work uses to feed
// back in.
type ElementTree struct {
	renderTree RenderTree

	elements         map[Id]*Element
	rootId           Id
	globalKeys       map[Key]Id
	renderIndex      map[*RenderHandle]Id
	inactiveElements map[Id]*Element

	scheduler buildScheduler
}

// mounts the root view and runs the first expansion synchronously.
// `renderTree == nil` falls back to an in-memory render tree.
func AttachRoot(rootView View, renderTree RenderTree) *ElementTree {
	if renderTree == nil {
		renderTree = NewMemoryRenderTree()
	}
	tree := &ElementTree{
		renderTree:       renderTree,
		elements:         map[Id]*Element{},
		globalKeys:       map[Key]Id{},
		renderIndex:      map[*RenderHandle]Id{},
		inactiveElements: map[Id]*Element{},
	}
	root := newElement(tree, rootView)
	tree.rootId = root.id
	root.mount(nil, Slot{})
	return tree
}

func (self *ElementTree) RootId() Id {
	return self.rootId
}

func (self *ElementTree) Element(elementId Id) *Element {
	return self.elements[elementId]
}

func (self *ElementTree) ElementCount() int {
	return len(self.elements)
}

// owning element of a render handle, for diagnostics and hit routing
func (self *ElementTree) ElementForHandle(handle *RenderHandle) *Element {
	if elementId, ok := self.renderIndex[handle]; ok {
		return self.elements[elementId]
	}
	return nil
}

// reconcile a new root view against the existing root. An incompatible view
// tears the old root down; the old subtree is released on the next Finalize.
func (self *ElementTree) UpdateRoot(rootView View) {
	root := self.elements[self.rootId]
	if root != nil && root.state == lifecycleActive {
		if sameView(root.view, rootView) {
			return
		}
		if canUpdate(root.view, rootView) {
			root.update(rootView)
			return
		}
		root.detachRenderHandles()
		self.deactivateRecursively(root)
	}
	newRoot := newElement(self, rootView)
	self.rootId = newRoot.id
	newRoot.mount(nil, Slot{})
}

// drop a child subtree from its parent. The top-level render handles leave
// the render tree now; everything else is deferred to Finalize.
func (self *ElementTree) deactivateChild(child *Element) {
	child.parentId = Id{}
	child.detachRenderHandles()
	self.deactivateRecursively(child)
}

func (self *ElementTree) deactivateRecursively(el *Element) {
	el.deactivate()
	for _, child := range el.children() {
		self.deactivateRecursively(child)
	}
}

// two live elements can never hold the same global key
func (self *ElementTree) registerGlobalKey(key Key, el *Element) {
	if existingId, ok := self.globalKeys[key]; ok && existingId != el.id {
		if existing := self.elements[existingId]; existing != nil && existing.state == lifecycleActive {
			invariantf("tree: global key %s registered by both %s and %s", key, existingId, el.id)
		}
	}
	self.globalKeys[key] = el.id
}

func (self *ElementTree) unregisterGlobalKey(key Key, el *Element) {
	if self.globalKeys[key] == el.id {
		delete(self.globalKeys, key)
	}
}

// reclaim an inactive element whose global key matches a view being inflated
// under a new parent: detach from the old owner, attach to the new owner,
// activate. Never an implicit side channel.
func (self *ElementTree) retakeGlobalKeyed(key Key, view View, parent *Element, slot Slot) *Element {
	elementId, ok := self.globalKeys[key]
	if !ok {
		return nil
	}
	el := self.elements[elementId]
	if el == nil || el.state != lifecycleInactive || !canUpdate(el.view, view) {
		return nil
	}
	el.parentId = parent.id
	el.updateDepth(parent.depth + 1)
	el.updateAmbientIndex(parent.ambientIndexForChildren())
	el.slot = slot
	el.activateRecursively()
	el.attachRenderHandles()
	return el
}

// read-only structural snapshot, consumed by the inspector and the demo host
type ElementSnapshot struct {
	Id       Id                 `json:"id"`
	Type     string             `json:"type"`
	Key      string             `json:"key,omitempty"`
	State    string             `json:"state"`
	Depth    int                `json:"depth"`
	Dirty    bool               `json:"dirty,omitempty"`
	Handle   string             `json:"handle,omitempty"`
	Children []*ElementSnapshot `json:"children,omitempty"`
}

func (self *ElementTree) Snapshot() *ElementSnapshot {
	root := self.elements[self.rootId]
	if root == nil {
		return nil
	}
	return self.snapshotElement(root)
}

func (self *ElementTree) snapshotElement(el *Element) *ElementSnapshot {
	snapshot := &ElementSnapshot{
		Id:    el.id,
		Type:  viewTypeTag(el.view),
		State: el.state.String(),
		Depth: el.depth,
		Dirty: el.dirty,
	}
	if key := el.view.ViewKey(); key.Kind != KeyNone {
		snapshot.Key = key.String()
	}
	if render, ok := el.behavior.(*renderBehavior); ok && render.handle != nil {
		snapshot.Handle = render.handle.kind
	}
	for _, child := range el.children() {
		snapshot.Children = append(snapshot.Children, self.snapshotElement(child))
	}
	return snapshot
}
