// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package kdbx

import "sync"

// Change is delivered to subscribers after a property of a model object has
// been modified. An empty Property means the whole object was overwritten.
type Change struct {
	Property string
}

// observable is embedded by every model type that reports changes. Listeners
// run synchronously on the mutating goroutine, after the mutation and outside
// of any internal lock. Clones start without listeners.
type observable struct {
	obsMu     sync.Mutex
	nextID    int
	listeners map[int]func(Change)
}

// Subscribe registers fn and returns a function that removes it.
func (o *observable) Subscribe(fn func(Change)) (cancel func()) {
	o.obsMu.Lock()
	defer o.obsMu.Unlock()

	if o.listeners == nil {
		o.listeners = make(map[int]func(Change))
	}
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn

	return func() {
		o.obsMu.Lock()
		delete(o.listeners, id)
		o.obsMu.Unlock()
	}
}

func (o *observable) notify(property string) {
	o.obsMu.Lock()
	fns := make([]func(Change), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.obsMu.Unlock()

	for _, fn := range fns {
		fn(Change{Property: property})
	}
}
