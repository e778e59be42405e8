package reconcile

// comparable
// where a render handle goes under its owner: the zero-based position among
// the owner's child views plus the immediately preceding sibling handle
// (nil means first). The previous handle is all the render tree needs for an
// O(1) linked-list splice.
type Slot struct {
	Index    int
	Previous *RenderHandle
}

// an opaque handle into the downstream render/layout pipeline. The engine
// only creates, splices, and releases handles. Sibling and child pointers are
// owned by the RenderTree implementation.
type RenderHandle struct {
	id     Id
	kind   string
	Config any

	parent      *RenderHandle
	prevSibling *RenderHandle
	nextSibling *RenderHandle
	firstChild  *RenderHandle
	lastChild   *RenderHandle
	childCount  int
	attached    bool
}

func NewRenderHandle(kind string, config any) *RenderHandle {
	return &RenderHandle{
		id:     NewId(),
		kind:   kind,
		Config: config,
	}
}

func (self *RenderHandle) Id() Id {
	return self.id
}

func (self *RenderHandle) Kind() string {
	return self.kind
}

func (self *RenderHandle) Parent() *RenderHandle {
	return self.parent
}

func (self *RenderHandle) PrevSibling() *RenderHandle {
	return self.prevSibling
}

func (self *RenderHandle) NextSibling() *RenderHandle {
	return self.nextSibling
}

func (self *RenderHandle) FirstChild() *RenderHandle {
	return self.firstChild
}

func (self *RenderHandle) ChildCount() int {
	return self.childCount
}

func (self *RenderHandle) ChildHandles() []*RenderHandle {
	children := make([]*RenderHandle, 0, self.childCount)
	for child := self.firstChild; child != nil; child = child.nextSibling {
		children = append(children, child)
	}
	return children
}

// consumed from the render/layout pipeline. `after == nil` means first
// position. `parent == nil` addresses the root position.
// Attach/Detach bracket the lifetime of one handle: Attach when the owning
// element mounts, Detach when it unmounts. The scheduler's finalize order
// guarantees a handle is never detached before its child handles.
type RenderTree interface {
	Attach(handle *RenderHandle)
	Detach(handle *RenderHandle)
	Insert(parent *RenderHandle, handle *RenderHandle, after *RenderHandle)
	Move(parent *RenderHandle, handle *RenderHandle, after *RenderHandle)
	Remove(parent *RenderHandle, handle *RenderHandle)
}

// reference render tree with doubly-linked sibling pointers. Each operation
// is O(1). Used by tests and the demo host; a real pipeline supplies its own
// implementation.
type MemoryRenderTree struct {
	root *RenderHandle
}

func NewMemoryRenderTree() *MemoryRenderTree {
	return &MemoryRenderTree{}
}

func (self *MemoryRenderTree) Root() *RenderHandle {
	return self.root
}

func (self *MemoryRenderTree) Attach(handle *RenderHandle) {
	if handle.attached {
		invariantf("render: handle %s attached twice", handle.id)
	}
	handle.attached = true
}

func (self *MemoryRenderTree) Detach(handle *RenderHandle) {
	if !handle.attached {
		invariantf("render: handle %s detached twice", handle.id)
	}
	// the handle may still be linked under a parent that is being released
	// in the same finalize pass
	if handle.parent != nil {
		self.spliceOut(handle.parent, handle)
	}
	handle.attached = false
}

func (self *MemoryRenderTree) Insert(parent *RenderHandle, handle *RenderHandle, after *RenderHandle) {
	if parent == nil {
		if self.root != nil && self.root != handle {
			invariantf("render: root handle %s already present, cannot insert %s", self.root.id, handle.id)
		}
		self.root = handle
		return
	}
	if handle.parent != nil {
		invariantf("render: handle %s already has a parent", handle.id)
	}
	self.spliceIn(parent, handle, after)
}

func (self *MemoryRenderTree) Move(parent *RenderHandle, handle *RenderHandle, after *RenderHandle) {
	if parent == nil {
		// the root has no siblings
		return
	}
	if handle.parent != parent {
		// a slot token pointed at a handle this parent does not own.
		// this is a reconciliation bookkeeping bug, not a recoverable state.
		invariantf("render: move of handle %s that is not a child of %s", handle.id, parent.id)
	}
	if handle.prevSibling == after {
		return
	}
	self.spliceOut(parent, handle)
	self.spliceIn(parent, handle, after)
}

func (self *MemoryRenderTree) Remove(parent *RenderHandle, handle *RenderHandle) {
	if parent == nil {
		if self.root != handle {
			invariantf("render: remove of handle %s that is not the root", handle.id)
		}
		self.root = nil
		return
	}
	if handle.parent != parent {
		invariantf("render: remove of handle %s that is not a child of %s", handle.id, parent.id)
	}
	self.spliceOut(parent, handle)
}

func (self *MemoryRenderTree) spliceIn(parent *RenderHandle, handle *RenderHandle, after *RenderHandle) {
	handle.parent = parent
	handle.prevSibling = after
	if after == nil {
		handle.nextSibling = parent.firstChild
		if parent.firstChild != nil {
			parent.firstChild.prevSibling = handle
		}
		parent.firstChild = handle
	} else {
		if after.parent != parent {
			invariantf("render: after handle %s is not a child of %s", after.id, parent.id)
		}
		handle.nextSibling = after.nextSibling
		if after.nextSibling != nil {
			after.nextSibling.prevSibling = handle
		}
		after.nextSibling = handle
	}
	if handle.nextSibling == nil {
		parent.lastChild = handle
	}
	parent.childCount += 1
}

func (self *MemoryRenderTree) spliceOut(parent *RenderHandle, handle *RenderHandle) {
	if handle.prevSibling != nil {
		handle.prevSibling.nextSibling = handle.nextSibling
	} else {
		parent.firstChild = handle.nextSibling
	}
	if handle.nextSibling != nil {
		handle.nextSibling.prevSibling = handle.prevSibling
	} else {
		parent.lastChild = handle.prevSibling
	}
	handle.parent = nil
	handle.prevSibling = nil
	handle.nextSibling = nil
	parent.childCount -= 1
}
