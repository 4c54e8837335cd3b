// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package x11 binds shared memory transfers to an X server with the MIT-SHM extension.
package x11

import (
	"github.com/jezek/xgb"
	mitshm "github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xproto"
	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
	"github.com/nxgtw/go-xshm/shm"
)

// Conn is an X connection with the MIT-SHM extension initialized.
// It implements xshm.Display.
// X errors of unchecked requests are delivered by WaitForEvent as events
// of type xgb.Error.
type Conn struct {
	X *xgb.Conn
}

// Version describes the MIT-SHM extension of the server.
type Version struct {
	Major         uint16
	Minor         uint16
	SharedPixmaps bool
	PixmapFormat  xshm.Format
	UID           uint16
	GID           uint16
}

// Dial connects to the display. An empty name means $DISPLAY.
func Dial(display string) (*Conn, error) {
	x, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, &xshm.TransportError{Op: "connect", Err: err}
	}
	c, err := New(x)
	if err != nil {
		x.Close()
		return nil, err
	}
	return c, nil
}

// New initializes the MIT-SHM extension on x.
func New(x *xgb.Conn) (*Conn, error) {
	if err := mitshm.Init(x); err != nil {
		return nil, &xshm.ProtocolError{Op: "init MIT-SHM", Err: err}
	}
	return &Conn{X: x}, nil
}

// Close closes the connection.
func (c *Conn) Close() {
	c.X.Close()
}

// Version queries the extension version.
func (c *Conn) Version() (Version, error) {
	reply, err := mitshm.QueryVersion(c.X).Reply()
	if err != nil {
		return Version{}, wrapError("query version", xshm.NoSegment, err)
	}
	return Version{
		Major:         reply.MajorVersion,
		Minor:         reply.MinorVersion,
		SharedPixmaps: reply.SharedPixmaps,
		PixmapFormat:  xshm.Format(reply.PixmapFormat),
		UID:           reply.Uid,
		GID:           reply.Gid,
	}, nil
}

// NewSegID allocates an identifier from the connection's id range.
func (c *Conn) NewSegID() (xshm.SegID, error) {
	seg, err := mitshm.NewSegId(c.X)
	if err != nil {
		return xshm.NoSegment, errors.Wrap(err, "failed to allocate segment id")
	}
	return xshm.SegID(seg), nil
}

// Attach sends a checked attach request.
func (c *Conn) Attach(seg xshm.SegID, shmid int, readOnly bool) error {
	err := mitshm.AttachChecked(c.X, mitshm.Seg(seg), uint32(shmid), readOnly).Check()
	return wrapError("attach", seg, err)
}

// AttachUnchecked sends an attach request. An error, if any, arrives as an event.
func (c *Conn) AttachUnchecked(seg xshm.SegID, shmid int, readOnly bool) error {
	mitshm.Attach(c.X, mitshm.Seg(seg), uint32(shmid), readOnly)
	return nil
}

// Detach sends a checked detach request.
func (c *Conn) Detach(seg xshm.SegID) error {
	return wrapError("detach", seg, mitshm.DetachChecked(c.X, mitshm.Seg(seg)).Check())
}

// PutImage sends a checked put request.
func (c *Conn) PutImage(seg xshm.SegID, req xshm.PutRequest, sendEvent bool) error {
	var send byte
	if sendEvent {
		send = 1
	}
	err := mitshm.PutImageChecked(c.X,
		xproto.Drawable(req.Drawable), xproto.Gcontext(req.GC),
		req.TotalWidth, req.TotalHeight,
		req.SrcX, req.SrcY, req.Width, req.Height,
		req.DstX, req.DstY,
		req.Depth, byte(req.Format), send,
		mitshm.Seg(seg), req.Offset).Check()
	return wrapError("put image", seg, err)
}

// GetImage sends a get request and waits for the reply.
func (c *Conn) GetImage(seg xshm.SegID, req xshm.GetRequest) (xshm.GetReply, error) {
	reply, err := mitshm.GetImage(c.X,
		xproto.Drawable(req.Drawable),
		req.X, req.Y, req.Width, req.Height,
		req.PlaneMask, byte(req.Format),
		mitshm.Seg(seg), req.Offset).Reply()
	if err != nil {
		return xshm.GetReply{}, wrapError("get image", seg, err)
	}
	return xshm.GetReply{Depth: reply.Depth, Visual: uint32(reply.Visual), Size: reply.Size}, nil
}

// CreatePixmap creates a pixmap, which uses the attached segment as its storage.
// The server must support shared pixmaps, see Version.
// The segment must stay attached while the pixmap exists.
func (c *Conn) CreatePixmap(pid xshm.Pixmap, drawable xshm.Drawable, width, height uint16, depth uint8,
	reg *shm.Registration, offset uint32) error {
	if reg.Detached() {
		panic(&xshm.PreconditionViolation{Op: "create pixmap", Reason: "segment has been detached"})
	}
	err := mitshm.CreatePixmapChecked(c.X, xproto.Pixmap(pid), xproto.Drawable(drawable),
		width, height, depth, mitshm.Seg(reg.ID()), offset).Check()
	return wrapError("create pixmap", reg.ID(), err)
}

// WaitForEvent blocks until the next event arrives.
// Completion events are translated into xshm.Completion.
func (c *Conn) WaitForEvent() (xshm.Event, error) {
	ev, xerr := c.X.WaitForEvent()
	if ev == nil && xerr == nil {
		return nil, &xshm.TransportError{Op: "wait for event", Err: xshm.ErrConnectionClosed}
	}
	if xerr != nil {
		return xerr, nil
	}
	return translate(ev), nil
}

// PollForEvent returns the next queued event without blocking.
// It returns nil if there is none.
func (c *Conn) PollForEvent() xshm.Event {
	ev, xerr := c.X.PollForEvent()
	if xerr != nil {
		return xerr
	}
	if ev == nil {
		return nil
	}
	return translate(ev)
}

func translate(ev xgb.Event) xshm.Event {
	if cpl, ok := ev.(mitshm.CompletionEvent); ok {
		return xshm.Completion{
			Segment:    xshm.SegID(cpl.Shmseg),
			Drawable:   xshm.Drawable(cpl.Drawable),
			Offset:     cpl.Offset,
			MinorEvent: cpl.MinorEvent,
			MajorEvent: cpl.MajorEvent,
		}
	}
	return ev
}

func wrapError(op string, seg xshm.SegID, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(xgb.Error); ok {
		return &xshm.ProtocolError{Op: op, Seg: seg, Err: err}
	}
	return &xshm.TransportError{Op: op, Err: err}
}

var _ xshm.Display = (*Conn)(nil)
