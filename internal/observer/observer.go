// Package observer implements a small multi-subscriber broadcast list.
package observer

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/crumple/internal/logger"
)

// Handle identifies a registered callback for removal. The zero Handle is
// never issued.
type Handle uint64

// List is a set of callbacks receiving values of type T. Delivery order is
// unspecified. A panicking callback is logged and skipped; it never stops
// delivery to the others or reaches the emitter.
//
// The zero value is ready to use.
type List[T any] struct {
	mu   sync.RWMutex
	next Handle
	subs map[Handle]func(T)

	// Name labels log lines about misbehaving callbacks.
	Name string
	// Logger receives panic reports. Nil means the global logger at the
	// time of the panic.
	Logger *zap.Logger
}

// Add registers fn and returns its handle.
func (l *List[T]) Add(fn func(T)) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.subs == nil {
		l.subs = make(map[Handle]func(T))
	}
	l.next++
	l.subs[l.next] = fn
	return l.next
}

// Remove unregisters h. It reports whether h was registered.
func (l *List[T]) Remove(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.subs[h]; !ok {
		return false
	}
	delete(l.subs, h)
	return true
}

// Len returns the number of registered callbacks.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// Emit delivers v to every callback registered at the time of the call.
// Callbacks may Add or Remove during delivery.
func (l *List[T]) Emit(v T) {
	l.mu.RLock()
	if len(l.subs) == 0 {
		l.mu.RUnlock()
		return
	}
	fns := make([]func(T), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()

	for _, fn := range fns {
		l.deliver(fn, v)
	}
}

func (l *List[T]) deliver(fn func(T), v T) {
	defer func() {
		if r := recover(); r != nil {
			log := l.Logger
			if log == nil {
				log = logger.Log
			}
			log.Warn("observer panicked",
				zap.String("list", l.Name),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	fn(v)
}
