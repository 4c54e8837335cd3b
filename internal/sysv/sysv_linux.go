// Copyright 2016 Aleksandr Demakin. All rights reserved.

//go:build linux
// +build linux

package sysv

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Get creates a new private segment.
func Get(size int, perm os.FileMode) (int, error) {
	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|unix.IPC_EXCL|int(perm.Perm()))
	if err != nil {
		return 0, os.NewSyscallError("SHMGET", err)
	}
	return id, nil
}

// Attach maps the segment into the address space.
func Attach(id int, readOnly bool) ([]byte, error) {
	var flag int
	if readOnly {
		flag = unix.SHM_RDONLY
	}
	data, err := unix.SysvShmAttach(id, 0, flag)
	if err != nil {
		return nil, os.NewSyscallError("SHMAT", err)
	}
	return data, nil
}

// Detach unmaps the segment. data must not be used after that.
func Detach(data []byte) error {
	if err := unix.SysvShmDetach(data); err != nil {
		return os.NewSyscallError("SHMDT", err)
	}
	return nil
}

// Remove marks the segment for destruction.
// It is destroyed after the last process detaches from it.
func Remove(id int) error {
	if _, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil); err != nil {
		return os.NewSyscallError("SHMCTL", err)
	}
	return nil
}

// Stat returns segment's info.
func Stat(id int) (*Info, error) {
	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(id, unix.IPC_STAT, &desc); err != nil {
		return nil, os.NewSyscallError("SHMCTL", err)
	}
	return &Info{
		Size:     int(desc.Segsz),
		Attached: int(desc.Nattch),
		Mode:     os.FileMode(desc.Perm.Mode).Perm(),
	}, nil
}

// Exists returns true if the segment has not been destroyed yet.
func Exists(id int) bool {
	_, err := Stat(id)
	return err == nil
}

// IsUnsupported returns true, if the error means that the system
// does not provide System V shared memory to this process.
func IsUnsupported(err error) bool {
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Err == unix.ENOSYS || sysErr.Err == unix.EPERM || sysErr.Err == unix.EACCES
	}
	return false
}
