// Package rt is the runtime type-descriptor layer of the ferrite toolchain.
//
// The compiler emits one static, read-only descriptor table per derived-type
// specialization: type parameters, fields, bound procedures, an optional
// static initialization image, and the instance size. The running program
// consumes those tables to perform what generic code cannot know at compile
// time: type equivalence and extension tests, generic initialization of raw
// instance storage, and generic destruction with correct finalizer ordering
// across an inheritance chain.
//
// Nothing in a static table is mutated after construction, so every
// descriptor may be shared by any number of goroutines without locking.
// Instance storage is caller-owned ([]byte of exactly the instance size);
// this package addresses fields by byte offset only and never allocates or
// frees an instance buffer on behalf of a caller.
package rt
