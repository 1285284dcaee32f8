// Package abi exposes the upcall entry points to wasm guests as a host
// module named "chord".
//
// Only the numeric entry points cross the boundary: fail, malloc, free and
// the stack group. The two call shims and the personality bridge take host
// pointers and host control flow, which cannot be expressed over linear
// memory, so guests never see them.
//
// Type descriptors live on the host. A guest allocates by id: register the
// descriptor with RegisterTypeDesc and pass the returned id to
// upcall_malloc.
package abi
