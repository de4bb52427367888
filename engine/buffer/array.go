package buffer

import "github.com/Carmen-Shannon/oxy-tracker/common"

// minCapacity is the smallest non-zero capacity an Array grows to.
const minCapacity = 8

// Array is a host-side growable array of GPU records. Len is the number of records
// written this frame; Cap is the allocated capacity. Capacity only grows, by doubling,
// and only when a frame needs more records than it holds, so frames with a steady
// entity count allocate nothing.
//
// An Array is not safe for concurrent use; each generator owns the arrays it writes.
type Array[T any] struct {
	data         []T // len(data) == capacity
	n            int
	grows        int
	needsRebuild bool
}

// NewArray creates an Array with an initial capacity.
//
// Parameters:
//   - capacity: initial capacity (may be 0)
//
// Returns:
//   - *Array[T]: the array
func NewArray[T any](capacity int) *Array[T] {
	return &Array[T]{data: make([]T, max(capacity, 0))}
}

// Len returns the number of records written.
func (a *Array[T]) Len() int { return a.n }

// Cap returns the allocated capacity in records.
func (a *Array[T]) Cap() int { return len(a.data) }

// Grows returns how many reallocations the array has performed.
func (a *Array[T]) Grows() int { return a.grows }

// EnsureCapacity grows the backing storage so it can hold at least n records,
// preserving the records already written. Growth doubles the capacity (minimum 8)
// until it covers n, so one call performs at most one reallocation.
// No-op if n is less than or equal to the current capacity.
//
// Parameters:
//   - n: required capacity in records
//
// Returns:
//   - bool: true if the storage was reallocated
func (a *Array[T]) EnsureCapacity(n int) bool {
	if n <= len(a.data) {
		return false
	}
	newCap := max(len(a.data)*2, minCapacity)
	for newCap < n {
		newCap *= 2
	}
	newData := make([]T, newCap)
	copy(newData, a.data[:a.n])
	a.data = newData
	a.grows++
	a.needsRebuild = true
	return true
}

// Reset sets the length to zero, keeping the capacity.
func (a *Array[T]) Reset() { a.n = 0 }

// Append adds one record, growing if needed.
func (a *Array[T]) Append(v T) {
	if a.n == len(a.data) {
		a.EnsureCapacity(a.n + 1)
	}
	a.data[a.n] = v
	a.n++
}

// Resize sets the length to n, growing if needed, and returns the writable records.
// Records beyond the previous length hold stale data and must be overwritten.
//
// Parameters:
//   - n: the new length
//
// Returns:
//   - []T: the records [0, n)
func (a *Array[T]) Resize(n int) []T {
	n = max(n, 0)
	a.EnsureCapacity(n)
	a.n = n
	return a.data[:n]
}

// Truncate shortens the array to n records. Larger n is ignored.
func (a *Array[T]) Truncate(n int) {
	if n >= 0 && n < a.n {
		a.n = n
	}
}

// Slice returns the written records. The slice aliases the array storage.
func (a *Array[T]) Slice() []T { return a.data[:a.n] }

// Last returns a pointer to the last written record, or nil if empty.
func (a *Array[T]) Last() *T {
	if a.n == 0 {
		return nil
	}
	return &a.data[a.n-1]
}

// Bytes returns a byte view of the written records for upload.
// The view aliases the array storage.
func (a *Array[T]) Bytes() []byte { return common.SliceToBytes(a.data[:a.n]) }

// NeedsRebuild reports whether the array has grown since ClearNeedsRebuild,
// meaning any GPU-side buffer sized from it must be recreated.
func (a *Array[T]) NeedsRebuild() bool { return a.needsRebuild }

// ClearNeedsRebuild resets the rebuild flag.
func (a *Array[T]) ClearNeedsRebuild() { a.needsRebuild = false }
