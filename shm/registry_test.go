// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	xshm "github.com/nxgtw/go-xshm"
	mock_xshm "github.com/nxgtw/go-xshm/internal/mock/xshm"
	"github.com/nxgtw/go-xshm/internal/peertest"
	"github.com/nxgtw/go-xshm/internal/sysv"
)

func TestRegistryAttachDetach(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	peer := peertest.New(16)
	r := NewRegistry(peer)
	reg, err := r.NewSegment(1024)
	if !a.NoError(err) {
		return
	}
	defer reg.Segment().Release()
	a.True(peer.Attached(reg.ID()))
	a.False(reg.Writable())
	a.Nil(reg.Shadow())
	a.Equal(1, r.Len())
	found, ok := r.Lookup(reg.ID())
	a.True(ok)
	a.Equal(reg, found)
	reqs := peer.Requests()
	if a.Len(reqs, 1) {
		a.Equal("attach", reqs[0].Op)
		a.Equal(reg.Segment().ID(), reqs[0].ShmID)
		a.True(reqs[0].ReadOnly)
		a.True(reqs[0].Checked)
	}
	a.NoError(r.Detach(reg))
	a.True(reg.Detached())
	a.False(peer.Attached(reg.ID()))
	a.Equal(0, r.Len())
	_, ok = r.Lookup(reg.ID())
	a.False(ok)
	a.PanicsWithError(violation("detach", "segment has been detached"), func() {
		r.Detach(reg)
	})
}

func TestRegistryAttachTwice(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	r := NewRegistry(peertest.New(16))
	seg, err := CreateSegment(64)
	if !a.NoError(err) {
		return
	}
	defer seg.Release()
	_, err = r.Attach(seg, false)
	a.NoError(err)
	a.PanicsWithError(violation("attach", "segment is already attached"), func() {
		r.Attach(seg, false)
	})
}

func TestRegistryAttachWritable(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	r := NewRegistry(peertest.New(16))
	seg, err := CreateSegment(64)
	if !a.NoError(err) {
		return
	}
	defer seg.Release()
	_, err = r.Attach(seg, true)
	a.True(errors.Is(err, xshm.ErrPeerReadOnly))
	a.Equal(0, r.Len())
	reg, err := r.NewShadow(64, true)
	if a.NoError(err) {
		a.True(reg.Writable())
		a.NotNil(reg.Shadow())
		a.NoError(r.Destroy(reg))
	}
}

func TestRegistryAttachReleased(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	peer := peertest.New(16)
	r := NewRegistry(peer)
	sh, err := CreateShadow(64)
	if !a.NoError(err) {
		return
	}
	a.NoError(sh.Release())
	_, err = r.Attach(sh, false)
	a.True(errors.Is(err, xshm.ErrReleased))
	a.Empty(peer.Requests())
}

func TestRegistryAttachRejected(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	peer := peertest.New(16)
	peer.Fail("attach", &xshm.ProtocolError{Op: "attach", Err: peertest.ErrBadAccess})
	r := NewRegistry(peer)
	_, err := r.NewShadow(64, false)
	a.True(xshm.IsProtocol(err))
	a.Equal(0, r.Len())
	if reqs := peer.Requests(); a.Len(reqs, 1) {
		a.False(sysv.Exists(reqs[0].ShmID), "segment must be released after a failed attach")
	}
}

func TestRegistryAttachConnectionFailure(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	disp := mock_xshm.NewMockDisplay(ctrl)
	var shmid int
	gomock.InOrder(
		disp.EXPECT().NewSegID().Return(xshm.SegID(7), nil),
		disp.EXPECT().Attach(xshm.SegID(7), gomock.Any(), true).
			DoAndReturn(func(_ xshm.SegID, id int, _ bool) error {
				shmid = id
				return errors.New("broken pipe")
			}),
	)
	r := NewRegistry(disp)
	_, err := r.NewSegment(256)
	a.True(xshm.IsTransport(err))
	a.False(xshm.IsProtocol(err))
	a.NotZero(shmid)
	a.False(sysv.Exists(shmid))
}

func TestRegistryAttachUnchecked(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	disp := mock_xshm.NewMockDisplay(ctrl)
	seg, err := CreateWritableSegment(256)
	if !a.NoError(err) {
		return
	}
	defer seg.Release()
	gomock.InOrder(
		disp.EXPECT().NewSegID().Return(xshm.SegID(3), nil),
		disp.EXPECT().AttachUnchecked(xshm.SegID(3), seg.ID(), false).Return(nil),
		disp.EXPECT().Detach(xshm.SegID(3)).Return(nil),
	)
	r := NewRegistry(disp)
	reg, err := r.AttachUnchecked(seg, true)
	if !a.NoError(err) {
		return
	}
	a.Equal(xshm.SegID(3), reg.ID())
	a.Equal(seg, reg.Segment())
	a.NoError(r.Detach(reg))
}

func TestRegistryIDFailure(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	peer := peertest.New(16)
	peer.Fail("id", errors.New("connection reset"))
	r := NewRegistry(peer)
	seg, err := CreateSegment(64)
	if !a.NoError(err) {
		return
	}
	defer seg.Release()
	_, err = r.Attach(seg, false)
	a.True(xshm.IsTransport(err))
	a.Empty(peer.Requests())
}

func TestRegistryDetachFailure(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	peer := peertest.New(16)
	r := NewRegistry(peer)
	reg, err := r.NewSegment(64)
	if !a.NoError(err) {
		return
	}
	defer reg.Segment().Release()
	peer.Fail("detach", &xshm.ProtocolError{Op: "detach", Seg: reg.ID(), Err: peertest.ErrBadSegment})
	err = r.Detach(reg)
	a.True(xshm.IsProtocol(err))
	a.False(reg.Detached())
	a.Equal(1, r.Len())
	peer.Fail("detach", nil)
	a.NoError(r.Detach(reg))
	a.Equal(0, r.Len())
}

func TestRegistryDestroy(t *testing.T) {
	requireSysV(t)
	a := assert.New(t)
	peer := peertest.New(16)
	r := NewRegistry(peer)
	reg, err := r.NewShadow(4096, false)
	if !a.NoError(err) {
		return
	}
	id := reg.Shadow().ID()
	a.NoError(r.Destroy(reg))
	a.False(sysv.Exists(id))
	a.Nil(reg.Shadow().Bytes())
	a.False(peer.Attached(reg.ID()))
}
