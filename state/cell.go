package state

import (
	"sync"
)

// Cell is an observable value. The SDK mutates cells as canonical state
// (current user, presence members, message logs) and UI consumers
// subscribe for change notification. Listeners are invoked synchronously
// on the mutating goroutine, outside the cell lock.
type Cell[T any] struct {
	mutex sync.Mutex

	value T

	nextListenerId int
	listeners      map[int]func(T)
}

func NewCell[T any](initialValue T) *Cell[T] {
	return &Cell[T]{
		value:     initialValue,
		listeners: map[int]func(T){},
	}
}

func (self *Cell[T]) Get() T {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.value
}

func (self *Cell[T]) Set(value T) {
	self.mutex.Lock()
	self.value = value
	listeners := self.listenersUnderLock()
	self.mutex.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
}

// Update applies `mutate` to the current value under the cell lock and
// stores the result. Used for convergent read-modify-write on maps and
// logs where two writers must not interleave between Get and Set.
func (self *Cell[T]) Update(mutate func(value T) T) T {
	self.mutex.Lock()
	self.value = mutate(self.value)
	value := self.value
	listeners := self.listenersUnderLock()
	self.mutex.Unlock()

	for _, listener := range listeners {
		listener(value)
	}
	return value
}

// Subscribe registers a change listener and returns a remove function.
func (self *Cell[T]) Subscribe(listener func(value T)) func() {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	listenerId := self.nextListenerId
	self.nextListenerId += 1
	self.listeners[listenerId] = listener

	return func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		delete(self.listeners, listenerId)
	}
}

func (self *Cell[T]) listenersUnderLock() []func(T) {
	// copy so listeners can unsubscribe from inside a callback
	listeners := make([]func(T), 0, len(self.listeners))
	for _, listener := range self.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

// Counter is a monotonic-until-cleared unread counter.
type Counter struct {
	cell *Cell[int]
}

func NewCounter() *Counter {
	return &Counter{
		cell: NewCell(0),
	}
}

func (self *Counter) Increment() {
	self.cell.Update(func(count int) int {
		return count + 1
	})
}

func (self *Counter) Clear() {
	self.cell.Set(0)
}

func (self *Counter) Count() int {
	return self.cell.Get()
}

func (self *Counter) Subscribe(listener func(count int)) func() {
	return self.cell.Subscribe(listener)
}
