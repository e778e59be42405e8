package reconcile

import (
	"sync"
)

// makes a copy of the list on update. Get returns callbacks in insertion
// order. Add returns the remove function for the callback.
type CallbackList[T any] struct {
	mutex       sync.Mutex
	callbackIds []Id
	callbacks   map[Id]T
}

func (self *CallbackList[T]) Get() []T {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	callbacks := make([]T, 0, len(self.callbackIds))
	for _, callbackId := range self.callbackIds {
		callbacks = append(callbacks, self.callbacks[callbackId])
	}
	return callbacks
}

func (self *CallbackList[T]) Add(callback T) func() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.callbacks == nil {
		self.callbacks = map[Id]T{}
	}
	callbackId := NewId()
	self.callbackIds = append(self.callbackIds, callbackId)
	self.callbacks[callbackId] = callback
	return func() {
		self.remove(callbackId)
	}
}

func (self *CallbackList[T]) remove(callbackId Id) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	for i, existingId := range self.callbackIds {
		if existingId == callbackId {
			nextCallbackIds := make([]Id, 0, len(self.callbackIds)-1)
			nextCallbackIds = append(nextCallbackIds, self.callbackIds[:i]...)
			nextCallbackIds = append(nextCallbackIds, self.callbackIds[i+1:]...)
			self.callbackIds = nextCallbackIds
			delete(self.callbacks, callbackId)
			return
		}
	}
}
