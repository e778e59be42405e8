package reconcile

// shared test views and a render tree that records adapter operations

type testBox struct {
	key      Key
	children []View
}

func box(key Key, children ...View) *testBox {
	return &testBox{
		key:      key,
		children: children,
	}
}

func (self *testBox) ViewKey() Key {
	return self.key
}

func (self *testBox) Children() []View {
	return self.children
}

func (self *testBox) CreateRenderHandle(ctx *BuildContext) *RenderHandle {
	return NewRenderHandle("box", nil)
}

func (self *testBox) UpdateRenderHandle(ctx *BuildContext, handle *RenderHandle) {
}

type testLabel struct {
	key  Key
	text string
}

func label(key Key, text string) *testLabel {
	return &testLabel{
		key:  key,
		text: text,
	}
}

func (self *testLabel) ViewKey() Key {
	return self.key
}

func (self *testLabel) Children() []View {
	return nil
}

func (self *testLabel) CreateRenderHandle(ctx *BuildContext) *RenderHandle {
	return NewRenderHandle("label", self.text)
}

func (self *testLabel) UpdateRenderHandle(ctx *BuildContext, handle *RenderHandle) {
	handle.Config = self.text
}

// stateless wrapper with an optional expansion counter
type testWrap struct {
	key         Key
	child       View
	expandCount *int
}

func wrap(key Key, child View) *testWrap {
	return &testWrap{
		key:   key,
		child: child,
	}
}

func (self *testWrap) ViewKey() Key {
	return self.key
}

func (self *testWrap) Expand(ctx *BuildContext) View {
	if self.expandCount != nil {
		*self.expandCount += 1
	}
	return self.child
}

// stateless view with a caller-supplied expansion, for failure and
// scheduling tests
type testEffect struct {
	key    Key
	expand func(ctx *BuildContext) View
}

func (self *testEffect) ViewKey() Key {
	return self.key
}

func (self *testEffect) Expand(ctx *BuildContext) View {
	return self.expand(ctx)
}

// stateful counter. The state object survives updates and reorders.
type testCounter struct {
	key     Key
	initial int
}

func counter(key Key, initial int) *testCounter {
	return &testCounter{
		key:     key,
		initial: initial,
	}
}

func (self *testCounter) ViewKey() Key {
	return self.key
}

func (self *testCounter) CreateState() ViewState {
	return &testCounterState{}
}

type testCounterState struct {
	ctx      *BuildContext
	count    int
	disposed bool
}

func (self *testCounterState) InitState(ctx *BuildContext) {
	self.ctx = ctx
	self.count = ctx.View().(*testCounter).initial
}

func (self *testCounterState) Expand(ctx *BuildContext) View {
	return label(Key{}, "count")
}

func (self *testCounterState) Increment() {
	self.count += 1
	self.ctx.MarkDirty()
}

func (self *testCounterState) Dispose() {
	self.disposed = true
}

type testAmbient struct {
	key   Key
	tag   string
	value any
	child View
}

func (self *testAmbient) ViewKey() Key {
	return self.key
}

func (self *testAmbient) AmbientTag() string {
	return self.tag
}

func (self *testAmbient) AmbientValue() any {
	return self.value
}

func (self *testAmbient) UpdateShouldNotify(oldView AmbientView) bool {
	return oldView.(*testAmbient).value != self.value
}

func (self *testAmbient) Child() View {
	return self.child
}

// reads an ambient tag on every expansion and records what it saw
type testReader struct {
	key  Key
	tag  string
	seen *[]any
}

func (self *testReader) ViewKey() Key {
	return self.key
}

func (self *testReader) Expand(ctx *BuildContext) View {
	value, _ := ctx.DependOnAmbient(self.tag)
	*self.seen = append(*self.seen, value)
	return nil
}

// counts sibling adapter operations
type recordingRenderTree struct {
	*MemoryRenderTree

	attachCount int
	detachCount int
	insertCount int
	moveCount   int
	removeCount int
}

func newRecordingRenderTree() *recordingRenderTree {
	return &recordingRenderTree{
		MemoryRenderTree: NewMemoryRenderTree(),
	}
}

func (self *recordingRenderTree) resetCounts() {
	self.attachCount = 0
	self.detachCount = 0
	self.insertCount = 0
	self.moveCount = 0
	self.removeCount = 0
}

func (self *recordingRenderTree) Attach(handle *RenderHandle) {
	self.attachCount += 1
	self.MemoryRenderTree.Attach(handle)
}

func (self *recordingRenderTree) Detach(handle *RenderHandle) {
	self.detachCount += 1
	self.MemoryRenderTree.Detach(handle)
}

func (self *recordingRenderTree) Insert(parent *RenderHandle, handle *RenderHandle, after *RenderHandle) {
	self.insertCount += 1
	self.MemoryRenderTree.Insert(parent, handle, after)
}

func (self *recordingRenderTree) Move(parent *RenderHandle, handle *RenderHandle, after *RenderHandle) {
	self.moveCount += 1
	self.MemoryRenderTree.Move(parent, handle, after)
}

func (self *recordingRenderTree) Remove(parent *RenderHandle, handle *RenderHandle) {
	self.removeCount += 1
	self.MemoryRenderTree.Remove(parent, handle)
}

// render child kinds/configs under a handle, in sibling order
func childConfigs(handle *RenderHandle) []any {
	configs := []any{}
	for child := handle.FirstChild(); child != nil; child = child.NextSibling() {
		configs = append(configs, child.Config)
	}
	return configs
}

func (self *ElementTree) mustElement(elementId Id) *Element {
	el := self.elements[elementId]
	if el == nil {
		invariantf("test: no element %s", elementId)
	}
	return el
}

// the state object of a stateful element
func counterState(tree *ElementTree, elementId Id) *testCounterState {
	el := tree.mustElement(elementId)
	return el.behavior.(*statefulBehavior).state.(*testCounterState)
}

// walk down single-child elements to the first element whose view matches
func findElement(tree *ElementTree, match func(View) bool) *Element {
	var walk func(el *Element) *Element
	walk = func(el *Element) *Element {
		if match(el.view) {
			return el
		}
		for _, child := range el.children() {
			if found := walk(child); found != nil {
				return found
			}
		}
		return nil
	}
	root := tree.elements[tree.rootId]
	if root == nil {
		return nil
	}
	return walk(root)
}
