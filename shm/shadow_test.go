// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nxgtw/go-xshm/internal/peertest"
	"github.com/nxgtw/go-xshm/internal/sysv"
)

func TestShadowPushPull(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	sh, err := CreateShadow(16384)
	if !a.NoError(err) {
		return
	}
	defer sh.Release()
	a.Equal(16384, sh.Len())
	a.Len(sh.Bytes(), 16384)
	a.Equal(make([]byte, 16384), sh.Bytes())
	pattern := peertest.Pattern(16384)
	copy(sh.Bytes(), pattern)
	sh.Push()
	a.Equal(pattern, sh.seg.Bytes())
	clear(sh.Bytes())
	sh.Pull()
	a.Equal(pattern, sh.Bytes())
}

func TestShadowPushWhileShared(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	sh, err := CreateShadow(64)
	if !a.NoError(err) {
		return
	}
	defer sh.Release()
	sh.seg.setShared(true)
	a.True(sh.Shared())
	a.PanicsWithError(violation("push", "segment is shared with the peer"), sh.Push)
	a.NotPanics(sh.Pull)
	sh.seg.setShared(false)
	a.NotPanics(sh.Push)
}

func TestShadowRelease(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	sh, err := CreateWritableShadow(4096)
	if !a.NoError(err) {
		return
	}
	a.True(sh.backing().PeerWritable())
	id := sh.ID()
	a.NoError(sh.Release())
	a.False(sysv.Exists(id))
	a.Nil(sh.Bytes())
	a.NoError(sh.Release())
	a.PanicsWithError(violation("push", "transport has been released"), sh.Push)
	a.PanicsWithError(violation("pull", "transport has been released"), sh.Pull)
}

func TestShadowReleasedBufferNotReused(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	var stale [][]byte
	for i := 0; i < 4; i++ {
		sh, err := CreateShadow(256)
		if !a.NoError(err) {
			return
		}
		for _, buf := range stale {
			buf[0] = 0xEE
		}
		a.Equal(byte(0), sh.Bytes()[0])
		stale = append(stale, sh.Bytes())
		a.NoError(sh.Release())
	}
}
