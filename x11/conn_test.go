// Copyright 2016 Aleksandr Demakin. All rights reserved.

package x11

import (
	"context"
	"os"
	"testing"

	"github.com/jezek/xgb"
	mitshm "github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xshm "github.com/nxgtw/go-xshm"
	"github.com/nxgtw/go-xshm/internal/sysv"
	"github.com/nxgtw/go-xshm/shm"
)

func TestTranslateCompletion(t *testing.T) {
	a := assert.New(t)
	ev := translate(mitshm.CompletionEvent{
		Sequence:   12,
		Drawable:   0x200003,
		MinorEvent: 3,
		MajorEvent: 130,
		Shmseg:     0x200001,
		Offset:     64,
	})
	a.Equal(xshm.Completion{
		Segment:    0x200001,
		Drawable:   0x200003,
		Offset:     64,
		MinorEvent: 3,
		MajorEvent: 130,
	}, ev)
	a.Equal(shm.Match, shm.Classify(ev, 0x200001))
}

func TestTranslateOther(t *testing.T) {
	expose := xproto.ExposeEvent{Window: 5, Width: 10, Height: 10}
	ev := translate(expose)
	assert.Equal(t, expose, ev)
	assert.Equal(t, shm.Forward, shm.Classify(ev, 5))
}

func TestWrapError(t *testing.T) {
	a := assert.New(t)
	a.NoError(wrapError("attach", 1, nil))

	var xerr xgb.Error = mitshm.BadSegError{Sequence: 4, BadValue: 1, NiceName: "BadSeg"}
	err := wrapError("detach", 1, xerr)
	a.True(xshm.IsProtocol(err))
	var protoErr *xshm.ProtocolError
	if a.True(errors.As(err, &protoErr)) {
		a.Equal(xshm.SegID(1), protoErr.Seg)
		a.Equal(xerr, protoErr.Err)
	}

	err = wrapError("put image", 1, errors.New("write: broken pipe"))
	a.True(xshm.IsTransport(err))
}

func dialOrSkip(t *testing.T) *Conn {
	if os.Getenv("DISPLAY") == "" {
		t.Skip("DISPLAY is not set")
	}
	if id, err := sysv.Get(1, 0600); err != nil {
		t.Skipf("system V shm is not available: %v", err)
	} else {
		sysv.Remove(id)
	}
	c, err := Dial("")
	if err != nil {
		t.Skipf("cannot use MIT-SHM: %v", err)
	}
	return c
}

func TestServerRoundTrip(t *testing.T) {
	c := dialOrSkip(t)
	defer c.Close()
	a := assert.New(t)

	version, err := c.Version()
	require.NoError(t, err)
	a.True(version.Major >= 1)

	screen := xproto.Setup(c.X).DefaultScreen(c.X)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		t.Skipf("unsupported root depth %d", screen.RootDepth)
	}
	const w, h = 8, 8
	size := xshm.ImageSize(w, h, 32, 32)

	pid, err := xproto.NewPixmapId(c.X)
	require.NoError(t, err)
	require.NoError(t, xproto.CreatePixmapChecked(c.X, screen.RootDepth, pid, xproto.Drawable(screen.Root), w, h).Check())
	defer xproto.FreePixmap(c.X, pid)
	gc, err := xproto.NewGcontextId(c.X)
	require.NoError(t, err)
	require.NoError(t, xproto.CreateGCChecked(c.X, gc, xproto.Drawable(pid), xproto.GcGraphicsExposures, []uint32{0}).Check())
	defer xproto.FreeGC(c.X, gc)

	registry := shm.NewRegistry(c)
	coord := shm.NewCoordinator(c)

	src, err := registry.NewShadow(size, false)
	require.NoError(t, err)
	defer registry.Destroy(src)
	for i := range src.Shadow().Bytes() {
		src.Shadow().Bytes()[i] = byte(i)
	}
	err = coord.Put(context.Background(), src, xshm.PutRequest{
		Drawable:    xshm.Drawable(pid),
		GC:          xshm.GContext(gc),
		TotalWidth:  w,
		TotalHeight: h,
		Width:       w,
		Height:      h,
		Depth:       screen.RootDepth,
		Format:      xshm.FormatZPixmap,
	})
	require.NoError(t, err)
	a.False(src.Shadow().Shared())

	dst, err := registry.NewShadow(size, true)
	require.NoError(t, err)
	defer registry.Destroy(dst)
	reply, err := coord.GetInto(context.Background(), dst, xshm.GetRequest{
		Drawable:  xshm.Drawable(pid),
		Width:     w,
		Height:    h,
		PlaneMask: 0x00ffffff,
		Format:    xshm.FormatZPixmap,
	})
	require.NoError(t, err)
	a.Equal(uint32(size), reply.Size)
	for i := 0; i < size; i += 4 {
		a.Equal(src.Shadow().Bytes()[i:i+3], dst.Shadow().Bytes()[i:i+3])
	}
}

func TestServerSharedPixmap(t *testing.T) {
	c := dialOrSkip(t)
	defer c.Close()
	a := assert.New(t)

	version, err := c.Version()
	require.NoError(t, err)
	if !version.SharedPixmaps {
		t.Skip("the server has no shared pixmaps")
	}
	screen := xproto.Setup(c.X).DefaultScreen(c.X)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		t.Skipf("unsupported root depth %d", screen.RootDepth)
	}
	const w, h = 4, 4
	size := xshm.ImageSize(w, h, 32, 32)

	registry := shm.NewRegistry(c)
	reg, err := registry.NewShadow(size, false)
	require.NoError(t, err)
	defer registry.Destroy(reg)
	for i := range reg.Shadow().Bytes() {
		reg.Shadow().Bytes()[i] = byte(i * 3)
	}
	reg.Shadow().Push()

	pid, err := xproto.NewPixmapId(c.X)
	require.NoError(t, err)
	require.NoError(t, c.CreatePixmap(xshm.Pixmap(pid), xshm.Drawable(screen.Root), w, h, screen.RootDepth, reg, 0))
	defer xproto.FreePixmap(c.X, pid)

	img, err := xproto.GetImage(c.X, xproto.ImageFormatZPixmap, xproto.Drawable(pid), 0, 0, w, h, 0x00ffffff).Reply()
	require.NoError(t, err)
	require.Len(t, img.Data, size)
	for i := 0; i < size; i += 4 {
		a.Equal(reg.Shadow().Bytes()[i:i+3], img.Data[i:i+3])
	}
}

func TestServerPollForCompletion(t *testing.T) {
	c := dialOrSkip(t)
	defer c.Close()
	a := assert.New(t)

	screen := xproto.Setup(c.X).DefaultScreen(c.X)
	if screen.RootDepth != 24 && screen.RootDepth != 32 {
		t.Skipf("unsupported root depth %d", screen.RootDepth)
	}
	const w, h = 4, 4
	pid, err := xproto.NewPixmapId(c.X)
	require.NoError(t, err)
	require.NoError(t, xproto.CreatePixmapChecked(c.X, screen.RootDepth, pid, xproto.Drawable(screen.Root), w, h).Check())
	defer xproto.FreePixmap(c.X, pid)
	gc, err := xproto.NewGcontextId(c.X)
	require.NoError(t, err)
	require.NoError(t, xproto.CreateGCChecked(c.X, gc, xproto.Drawable(pid), xproto.GcGraphicsExposures, []uint32{0}).Check())
	defer xproto.FreeGC(c.X, gc)

	registry := shm.NewRegistry(c)
	reg, err := registry.NewSegment(xshm.ImageSize(w, h, 32, 32))
	require.NoError(t, err)
	defer registry.Destroy(reg)

	a.Nil(c.PollForEvent())
	require.NoError(t, c.PutImage(reg.ID(), xshm.PutRequest{
		Drawable:    xshm.Drawable(pid),
		GC:          xshm.GContext(gc),
		TotalWidth:  w,
		TotalHeight: h,
		Width:       w,
		Height:      h,
		Depth:       screen.RootDepth,
		Format:      xshm.FormatZPixmap,
	}, true))
	// events preceding a reply are queued by the time the reply is read.
	_, err = xproto.GetInputFocus(c.X).Reply()
	require.NoError(t, err)
	ev := c.PollForEvent()
	if a.IsType(xshm.Completion{}, ev) {
		a.Equal(reg.ID(), ev.(xshm.Completion).Segment)
		a.Equal(xshm.Drawable(pid), ev.(xshm.Completion).Drawable)
	}
	a.Nil(c.PollForEvent())
}
