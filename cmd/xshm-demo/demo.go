// Copyright 2016 Aleksandr Demakin. All rights reserved.

package main

import (
	"context"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/lthibault/log"
	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
	"github.com/nxgtw/go-xshm/shm"
	"github.com/nxgtw/go-xshm/x11"
)

const title = "xshm demo"

type demo struct {
	conn     *x11.Conn
	registry *shm.Registry
	coord    *shm.Coordinator
	log      log.Logger

	width, height uint16
	frames        int
	sharedPixmaps bool

	depth  byte
	bpp    int
	win    xproto.Window
	winGC  xproto.Gcontext
	pixmap xproto.Pixmap
	pixGC  xproto.Gcontext

	// shmPixmap is stored in the segment, zero if the server has no shared pixmaps.
	shmPixmap xproto.Pixmap

	wmProtocols, wmDelete xproto.Atom
}

func (d *demo) run(ctx context.Context) error {
	if err := d.createWindow(); err != nil {
		return err
	}
	format, err := d.pixmapFormat()
	if err != nil {
		return err
	}
	size := xshm.ImageSize(d.width, d.height, int(format.BitsPerPixel), int(format.ScanlinePad))
	reg, err := d.registry.NewShadow(size, false)
	if err != nil {
		return err
	}
	defer d.dispose(reg)
	d.log.With(log.F{"seg": reg.ID(), "len": size}).Debug("segment ready")

	if err := d.createPixmap(); err != nil {
		return err
	}
	defer xproto.FreePixmap(d.conn.X, d.pixmap)
	if d.sharedPixmaps {
		if err := d.createSharedPixmap(reg); err != nil {
			return err
		}
		defer xproto.FreePixmap(d.conn.X, d.shmPixmap)
	}

	for frame := 0; frame < d.frames; frame++ {
		d.fill(reg.Shadow().Bytes(), frame)
		if err := d.coord.Put(ctx, reg, xshm.PutRequest{
			Drawable:    xshm.Drawable(d.pixmap),
			GC:          xshm.GContext(d.pixGC),
			TotalWidth:  d.width,
			TotalHeight: d.height,
			Width:       d.width,
			Height:      d.height,
			Depth:       d.depth,
			Format:      xshm.FormatZPixmap,
		}); err != nil {
			return err
		}
		if err := d.redraw(); err != nil {
			return err
		}
	}
	return d.loop()
}

func (d *demo) createWindow() error {
	x := d.conn.X
	screen := xproto.Setup(x).DefaultScreen(x)
	var err error
	if d.win, err = xproto.NewWindowId(x); err != nil {
		return errors.Wrap(err, "failed to allocate window id")
	}
	err = xproto.CreateWindowChecked(x, 0, d.win, screen.Root, 0, 0, d.width, d.height, 0,
		xproto.WindowClassCopyFromParent, 0,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{screen.WhitePixel, xproto.EventMaskExposure}).Check()
	if err != nil {
		return errors.Wrap(err, "failed to create window")
	}
	if err = xproto.MapWindowChecked(x, d.win).Check(); err != nil {
		return errors.Wrap(err, "failed to map window")
	}
	xproto.ChangeProperty(x, xproto.PropModeReplace, d.win, xproto.AtomWmName, xproto.AtomString,
		8, uint32(len(title)), []byte(title))

	if d.winGC, err = xproto.NewGcontextId(x); err != nil {
		return errors.Wrap(err, "failed to allocate gc id")
	}
	err = xproto.CreateGCChecked(x, d.winGC, xproto.Drawable(d.win), xproto.GcGraphicsExposures, []uint32{0}).Check()
	if err != nil {
		return errors.Wrap(err, "failed to create window gc")
	}

	geom, err := xproto.GetGeometry(x, xproto.Drawable(d.win)).Reply()
	if err != nil {
		return errors.Wrap(err, "failed to query window geometry")
	}
	d.depth = geom.Depth

	if d.wmProtocols, err = d.intern("WM_PROTOCOLS"); err != nil {
		return err
	}
	if d.wmDelete, err = d.intern("WM_DELETE_WINDOW"); err != nil {
		return err
	}
	data := make([]byte, 4)
	xgb.Put32(data, uint32(d.wmDelete))
	err = xproto.ChangePropertyChecked(x, xproto.PropModeReplace, d.win, d.wmProtocols, xproto.AtomAtom,
		32, 1, data).Check()
	return errors.Wrap(err, "failed to set WM_PROTOCOLS")
}

func (d *demo) intern(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(d.conn.X, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, errors.Wrapf(err, "failed to intern %s", name)
	}
	return reply.Atom, nil
}

func (d *demo) pixmapFormat() (xproto.Format, error) {
	for _, format := range xproto.Setup(d.conn.X).PixmapFormats {
		if format.Depth == d.depth {
			d.bpp = int(format.BitsPerPixel)
			return format, nil
		}
	}
	return xproto.Format{}, errors.Errorf("no pixmap format for depth %d", d.depth)
}

func (d *demo) createPixmap() error {
	x := d.conn.X
	var err error
	if d.pixmap, err = xproto.NewPixmapId(x); err != nil {
		return errors.Wrap(err, "failed to allocate pixmap id")
	}
	err = xproto.CreatePixmapChecked(x, d.depth, d.pixmap, xproto.Drawable(d.win), d.width, d.height).Check()
	if err != nil {
		return errors.Wrap(err, "failed to create pixmap")
	}
	if d.pixGC, err = xproto.NewGcontextId(x); err != nil {
		return errors.Wrap(err, "failed to allocate gc id")
	}
	black := xproto.Setup(x).DefaultScreen(x).BlackPixel
	err = xproto.CreateGCChecked(x, d.pixGC, xproto.Drawable(d.pixmap),
		xproto.GcForeground|xproto.GcGraphicsExposures, []uint32{black, 0}).Check()
	return errors.Wrap(err, "failed to create pixmap gc")
}

// createSharedPixmap creates a pixmap over the segment, so redraws read the last pushed frame directly.
func (d *demo) createSharedPixmap(reg *shm.Registration) error {
	pid, err := xproto.NewPixmapId(d.conn.X)
	if err != nil {
		return errors.Wrap(err, "failed to allocate pixmap id")
	}
	err = d.conn.CreatePixmap(xshm.Pixmap(pid), xshm.Drawable(d.win), d.width, d.height, d.depth, reg, 0)
	if err != nil {
		return err
	}
	d.shmPixmap = pid
	return nil
}

// dispose detaches the segment. If the connection was lost in the middle of
// a put, the segment is still claimed by the server, so it is abandoned instead.
func (d *demo) dispose(reg *shm.Registration) {
	var err error
	if reg.InFlight() || reg.Shadow().Shared() {
		err = d.registry.Abandon(reg)
	} else {
		err = d.registry.Destroy(reg)
	}
	if err != nil {
		d.log.WithError(err).Warn("failed to destroy segment")
	}
}

// fill draws a gradient shifted by frame. Pixels are stored as little endian BGRX.
func (d *demo) fill(buf []byte, frame int) {
	if d.bpp != 32 {
		for i := range buf {
			buf[i] = byte(i + frame)
		}
		return
	}
	w, h := int(d.width), int(d.height)
	stride := len(buf) / h
	for y := 0; y < h; y++ {
		row := buf[y*stride:]
		for x := 0; x < w; x++ {
			px := row[x*4 : x*4+4]
			px[0] = byte(128 + frame*8)
			px[1] = byte(y * 255 / h)
			px[2] = byte((x + frame*4) * 255 / w)
			px[3] = 0
		}
	}
}

func (d *demo) redraw() error {
	src := d.pixmap
	if d.shmPixmap != 0 {
		src = d.shmPixmap
	}
	err := xproto.CopyAreaChecked(d.conn.X, xproto.Drawable(src), xproto.Drawable(d.win), d.winGC,
		0, 0, 0, 0, d.width, d.height).Check()
	return errors.Wrap(err, "failed to copy pixmap")
}

// loop handles events until the window is closed.
// Events received while waiting for completions are drained first.
func (d *demo) loop() error {
	queue := d.coord.Events()
	for {
		ev, ok := queue.TryNext()
		if !ok {
			if err := d.coord.Pump(); err != nil {
				return err
			}
			continue
		}
		switch e := ev.(type) {
		case xproto.ExposeEvent:
			if e.Count > 0 {
				continue
			}
			if err := d.redraw(); err != nil {
				return err
			}
		case xproto.ClientMessageEvent:
			if e.Type == d.wmProtocols && len(e.Data.Data32) > 0 && xproto.Atom(e.Data.Data32[0]) == d.wmDelete {
				d.log.Info("window closed")
				return nil
			}
		case xshm.Completion:
			d.log.WithField("seg", e.Segment).Trace("late completion")
		case xgb.Error:
			d.log.WithError(e).Warn("request failed")
		}
	}
}
