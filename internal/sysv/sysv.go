// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package sysv wraps System V shared memory syscalls.
package sysv

import "os"

// Info describes an existing segment.
type Info struct {
	Size     int
	Attached int
	Mode     os.FileMode
}
