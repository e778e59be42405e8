package reconcile

import (
	"golang.org/x/exp/slices"
)

var schedulerLog = LogFn(LogLevelDebug, "scheduler")

// per-tree build coordinator. Tracks dirty elements, orders them by depth,
// and drives one flush to convergence. Owned by the tree's thread.
type buildScheduler struct {
	dirtyElements []*Element
	needsResort   bool
	flushing      bool
	epoch         uint64

	workPending         bool
	workPendingCallback func()

	flushCallbacks CallbackList[func()]
}

// the host's hook to request a frame. Invoked exactly once per batch, when
// the first element of an otherwise idle batch is scheduled.
func (self *ElementTree) SetWorkPendingCallback(callback func()) {
	self.scheduler.workPendingCallback = callback
}

// invoked after every completed flush, with the tree consistent. Returns an
// unsubscribe function.
func (self *ElementTree) AddFlushCallback(callback func()) func() {
	return self.scheduler.flushCallbacks.Add(callback)
}

// marks an element dirty. Idempotent per batch; safe to call at any time
// relative to a flush, except from inside the same element's own expansion.
func (self *ElementTree) Schedule(elementId Id) {
	if el := self.elements[elementId]; el != nil {
		el.markDirty()
	}
}

func (self *ElementTree) scheduleElement(el *Element) {
	s := &self.scheduler
	if el.inDirtyList {
		s.needsResort = true
		return
	}
	el.inDirtyList = true
	s.dirtyElements = append(s.dirtyElements, el)
	if s.flushing {
		s.needsResort = true
	}
	if !s.workPending {
		s.workPending = true
		if callback := s.workPendingCallback; callback != nil && !s.flushing {
			callback()
		}
	}
}

// drains the dirty set in ascending depth order, parents before children.
// Expansion may enqueue more work; the list is re-sorted and the cursor
// rewound to the first unprocessed dirty entry, never restarted from zero.
// An element is expanded at most once per flush: an element re-marked dirty
// after it was built this epoch is carried into the next batch instead.
func (self *ElementTree) Flush() {
	s := &self.scheduler
	if s.flushing {
		invariantf("scheduler: flush is not reentrant")
	}
	s.flushing = true
	s.epoch += 1
	schedulerLog("flush %d start with %d dirty", s.epoch, len(s.dirtyElements))

	sortDirtyElements(s.dirtyElements)
	s.needsResort = false
	index := 0
	for index < len(s.dirtyElements) {
		el := s.dirtyElements[index]
		if el.state == lifecycleActive && el.dirty && el.builtEpoch != s.epoch {
			el.rebuild()
		}
		index += 1
		if s.needsResort {
			s.needsResort = false
			sortDirtyElements(s.dirtyElements)
			// newly queued entries may have sorted behind already-built
			// entries at the same depth. Rewind to the earliest unbuilt
			// dirty entry, not just to a contiguous run.
			for i := index - 1; 0 <= i; i -= 1 {
				if rebuildable(s.dirtyElements[i], s.epoch) {
					index = i
				}
			}
		}
	}

	// elements re-marked dirty after building this epoch carry into the
	// next batch
	carried := []*Element{}
	for _, el := range s.dirtyElements {
		if el.state == lifecycleActive && el.dirty {
			carried = append(carried, el)
		} else {
			el.inDirtyList = false
		}
	}
	s.dirtyElements = carried
	s.flushing = false
	s.workPending = 0 < len(carried)
	schedulerLog("flush %d end, %d carried", s.epoch, len(carried))
	if s.workPending {
		if callback := s.workPendingCallback; callback != nil {
			callback()
		}
	}

	for _, callback := range s.flushCallbacks.Get() {
		callback()
	}
}

func rebuildable(el *Element, epoch uint64) bool {
	return el.state == lifecycleActive && el.dirty && el.builtEpoch != epoch
}

// ascending depth; dirty before clean so freshly re-queued siblings are
// processed in the same pass
func sortDirtyElements(els []*Element) {
	slices.SortStableFunc(els, func(a *Element, b *Element) int {
		if a.depth != b.depth {
			return a.depth - b.depth
		}
		if a.dirty != b.dirty {
			if a.dirty {
				return -1
			}
			return 1
		}
		return 0
	})
}

// unmounts everything left inactive, deepest first, so a render handle is
// never released before its children's handles
func (self *ElementTree) Finalize() {
	if self.scheduler.flushing {
		invariantf("scheduler: finalize during flush")
	}
	els := make([]*Element, 0, len(self.inactiveElements))
	for _, el := range self.inactiveElements {
		els = append(els, el)
	}
	slices.SortFunc(els, func(a *Element, b *Element) int {
		return b.depth - a.depth
	})
	for _, el := range els {
		if el.state == lifecycleInactive {
			el.unmount()
		}
	}
	schedulerLog("finalized %d elements", len(els))
}
