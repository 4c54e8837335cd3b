// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build !linux
// +build !linux

package sysv

import (
	"os"

	"github.com/pkg/errors"
)

var errUnsupported = errors.New("system V shared memory is not supported on this platform")

// Get creates a new private segment.
func Get(size int, perm os.FileMode) (int, error) {
	return 0, errUnsupported
}

// Attach maps the segment into the address space.
func Attach(id int, readOnly bool) ([]byte, error) {
	return nil, errUnsupported
}

// Detach unmaps the segment.
func Detach(data []byte) error {
	return errUnsupported
}

// Remove marks the segment for destruction.
func Remove(id int) error {
	return errUnsupported
}

// Stat returns segment's info.
func Stat(id int) (*Info, error) {
	return nil, errUnsupported
}

// Exists returns true if the segment still exists.
func Exists(id int) bool {
	return false
}

// IsUnsupported returns true, if the error means that the system
// does not provide System V shared memory to this process.
func IsUnsupported(err error) bool {
	return errors.Is(err, errUnsupported)
}
