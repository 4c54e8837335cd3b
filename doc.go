// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package xshm exchanges images with a display server through System V shared memory.
// The root package holds the protocol types and errors. The shm subpackage implements
// segments, shadowed transports, attach/detach and the put/get protocol, and the x11
// subpackage binds it to an X server with the MIT-SHM extension.
//
// A segment, which the server may read or write, must not be touched by the client
// until the server has finished with it. Attempts to do so panic with *PreconditionViolation.
package xshm
