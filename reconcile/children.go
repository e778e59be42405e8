package reconcile

import (
	"github.com/golang/glog"
)

var reconcileLog = LogFn(LogLevelDebug, "reconcile")

// single-child reconciliation. The slot cannot change, there is only one.
func (self *Element) reconcileSingleChild(views []View) {
	var newView View
	if 0 < len(views) {
		newView = views[0]
	}
	var oldChild *Element
	if 0 < len(self.childIds) {
		oldChild = self.tree.elements[self.childIds[0]]
	}
	newChild := self.updateChild(oldChild, newView, self.slot)
	if newChild != nil {
		self.childIds = []Id{newChild.id}
	} else {
		self.childIds = nil
	}
}

// reuse, replace, or drop one child for one new view.
// - nil view: deactivate the child
// - identical view: slot reassignment only, no expansion
// - compatible view: update in place, identity and state survive
// - otherwise: deactivate and inflate fresh
func (self *Element) updateChild(child *Element, newView View, slot Slot) *Element {
	if newView == nil {
		if child != nil {
			self.tree.deactivateChild(child)
		}
		return nil
	}
	if child != nil {
		if sameView(child.view, newView) {
			self.updateChildSlot(child, slot)
			return child
		}
		if canUpdate(child.view, newView) {
			self.updateChildSlot(child, slot)
			child.update(newView)
			return child
		}
		self.tree.deactivateChild(child)
	}
	return self.inflateView(newView, slot)
}

// ordered multi-child reconciliation in O(n): top scan, bottom scan, middle
// key index, middle fill, bottom resolve. Bottom-scan matches are not updated
// until the middle section is resolved, since their final slot tokens are not
// known before that.
func (self *Element) updateChildren(oldChildren []*Element, newViews []View) []*Element {
	newChildrenTop := 0
	oldChildrenTop := 0
	newChildrenBottom := len(newViews) - 1
	oldChildrenBottom := len(oldChildren) - 1

	newChildren := make([]*Element, len(newViews))
	var prevChild *Element

	// top scan: advance while the heads are compatible
	for (oldChildrenTop <= oldChildrenBottom) && (newChildrenTop <= newChildrenBottom) {
		oldChild := oldChildren[oldChildrenTop]
		newView := newViews[newChildrenTop]
		if oldChild == nil || !canUpdate(oldChild.view, newView) {
			break
		}
		newChild := self.updateChild(oldChild, newView, self.childSlot(newChildrenTop, prevChild))
		newChildren[newChildrenTop] = newChild
		prevChild = newChild
		newChildrenTop += 1
		oldChildrenTop += 1
	}

	// bottom scan: count trailing matches, defer their updates
	for (oldChildrenTop <= oldChildrenBottom) && (newChildrenTop <= newChildrenBottom) {
		oldChild := oldChildren[oldChildrenBottom]
		newView := newViews[newChildrenBottom]
		if oldChild == nil || !canUpdate(oldChild.view, newView) {
			break
		}
		oldChildrenBottom -= 1
		newChildrenBottom -= 1
	}

	// middle key index: bucket the remaining old children by key. Unkeyed old
	// children cannot participate in key-based reuse and are dropped now.
	var oldKeyedChildren map[Key]*Element
	if oldChildrenTop <= oldChildrenBottom {
		oldKeyedChildren = map[Key]*Element{}
		for oldChildrenTop <= oldChildrenBottom {
			oldChild := oldChildren[oldChildrenTop]
			if oldChild != nil {
				key := oldChild.view.ViewKey()
				if key.Kind != KeyNone {
					if _, ok := oldKeyedChildren[key]; ok {
						glog.Warningf("reconcile: duplicate key %s among children of %s\n", key, self.id)
						self.tree.deactivateChild(oldChild)
					} else {
						oldKeyedChildren[key] = oldChild
					}
				} else {
					self.tree.deactivateChild(oldChild)
				}
			}
			oldChildrenTop += 1
		}
	}

	// middle fill: reuse by key where compatible, otherwise inflate fresh.
	// a duplicate key in the new list is a caller error. The first occurrence
	// wins and later occurrences are treated as unkeyed, never dropped.
	var seenNewKeys map[Key]bool
	for newChildrenTop <= newChildrenBottom {
		newView := newViews[newChildrenTop]
		var oldChild *Element
		if key := newView.ViewKey(); key.Kind != KeyNone {
			if seenNewKeys[key] {
				glog.Warningf("reconcile: duplicate key %s in new children of %s, treating as unkeyed\n", key, self.id)
			} else {
				if seenNewKeys == nil {
					seenNewKeys = map[Key]bool{}
				}
				seenNewKeys[key] = true
				if keyedChild, ok := oldKeyedChildren[key]; ok && canUpdate(keyedChild.view, newView) {
					oldChild = keyedChild
					delete(oldKeyedChildren, key)
				}
			}
		}
		newChild := self.updateChild(oldChild, newView, self.childSlot(newChildrenTop, prevChild))
		newChildren[newChildrenTop] = newChild
		prevChild = newChild
		newChildrenTop += 1
	}

	// bottom resolve: the middle is final, update the deferred tail in
	// forward order with final slot tokens
	newChildrenBottom = len(newViews) - 1
	oldChildrenBottom = len(oldChildren) - 1
	for (oldChildrenTop <= oldChildrenBottom) && (newChildrenTop <= newChildrenBottom) {
		oldChild := oldChildren[oldChildrenTop]
		newChild := self.updateChild(oldChild, newViews[newChildrenTop], self.childSlot(newChildrenTop, prevChild))
		newChildren[newChildrenTop] = newChild
		prevChild = newChild
		newChildrenTop += 1
		oldChildrenTop += 1
	}

	// any old child left in the key index is unmatched
	for _, oldChild := range oldKeyedChildren {
		self.tree.deactivateChild(oldChild)
	}

	reconcileLog("%s reconciled %d -> %d children", self.id, len(oldChildren), len(newChildren))
	return newChildren
}

func (self *Element) childSlot(index int, prevChild *Element) Slot {
	return Slot{
		Index:    index,
		Previous: renderHandleOf(prevChild),
	}
}

func (self *Element) updateChildSlot(child *Element, slot Slot) {
	if child.slot == slot {
		return
	}
	child.slot = slot
	child.behavior.slotChanged(child)
}

// inflate a fresh element for a view, first consulting the global key
// registry so a reparented view reclaims its old element and state
func (self *Element) inflateView(view View, slot Slot) *Element {
	if key := view.ViewKey(); key.Kind == KeyGlobal {
		if reclaimed := self.tree.retakeGlobalKeyed(key, view, self, slot); reclaimed != nil {
			reclaimed.update(view)
			return reclaimed
		}
	}
	child := newElement(self.tree, view)
	child.mount(self, slot)
	return child
}
