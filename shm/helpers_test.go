// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"testing"

	"github.com/nxgtw/go-xshm/internal/sysv"
)

func requireSysV(t *testing.T) {
	t.Helper()
	id, err := sysv.Get(1, 0600)
	if err != nil {
		if sysv.IsUnsupported(err) {
			t.Skipf("system V shm is not available: %v", err)
		}
		t.Fatal(err)
	}
	if err := sysv.Remove(id); err != nil {
		t.Fatal(err)
	}
}

func violation(op, reason string) string {
	return "precondition violation in " + op + ": " + reason
}
