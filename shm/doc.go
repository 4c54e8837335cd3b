// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package shm implements shared memory image transfers with a display server.
//
// A Segment is a System V shared memory segment owned by the process.
// A Shadow pairs a segment with a private buffer, so that the application
// never touches memory, which the server can write at any time. The data
// is copied between them explicitly with Push and Pull.
//
// A Registry attaches segments to the server and detaches them. A Coordinator
// runs puts and gets over attached segments. While the server holds a claim on a
// segment, the segment is shared and any attempt to modify it, push into it, or
// detach it panics with *xshm.PreconditionViolation.
//
// All types here are meant to be used from a single goroutine per display connection.
package shm
