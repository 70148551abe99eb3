// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Generic object pooling abstractions used to keep allocator choices
// (sync.Pool-backed or otherwise) out of consumer packages.

package api

// ObjectPool provides generic pooling of transient Go objects.
type ObjectPool[T any] interface {
	Get() T
	Put(obj T)
}
