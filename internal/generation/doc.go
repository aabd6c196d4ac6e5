// Package generation implements epoch-based deferred reclamation for the
// memory index.
//
// Readers never lock index structures. Instead they pin the current write
// generation with a guard, walk immutable snapshots, and release the guard
// when done. Writers publish new snapshots, park the retired memory with
// Hold, and bump the generation. Parked memory is released only when the
// oldest pinned generation has moved past the hold's tag, so pooled buffers
// are never recycled while a reader can still dereference them.
//
// The usual cycle on the write side:
//
//	// publish new posting snapshot ...
//	h.Hold(uint64(cap(old)), func() { pool.Put(old) })
//	// after the batch:
//	h.Increment()
package generation
