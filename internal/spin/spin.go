// Package spin implements compare-and-swap retry loops over a single atomic pointer.
//
// The update functions passed to Swap and ConditionallySwap may be invoked several
// times when other goroutines win the race, each time with the freshest value, so they
// must not have side effects.
package spin

import (
	"runtime"
	"sync/atomic"
)

// Swap replaces the value held by ref with update(current), retrying until no other
// goroutine changed ref in between. It returns the value that was installed.
func Swap[T any](ref *atomic.Pointer[T], update func(current *T) *T) *T {
	for {
		current := ref.Load()
		next := update(current)
		if ref.CompareAndSwap(current, next) {
			return next
		}
		runtime.Gosched()
	}
}

// ConditionallySwap calls update with the current value. When update reports that a
// change is wanted, the returned value is installed with the same retry rules as Swap.
// The result of the last update call is returned whether or not anything was installed.
func ConditionallySwap[T, R any](ref *atomic.Pointer[T], update func(current *T) (bool, *T, R)) R {
	for {
		current := ref.Load()
		change, next, result := update(current)
		if !change {
			return result
		}
		if ref.CompareAndSwap(current, next) {
			return result
		}
		runtime.Gosched()
	}
}
