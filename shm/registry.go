// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"github.com/lthibault/log"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
)

// Backing is a *Segment or a *Shadow, which can be attached to the peer.
type Backing interface {
	Len() int
	ID() int
	backing() *segment
}

// Registration is a segment attached to the peer under a peer-visible identifier.
// It is valid until it is detached.
type Registration struct {
	id       xshm.SegID
	owner    Backing
	seg      *segment
	writable bool
	detached bool
	pending  *Pending
}

// ID returns the peer-visible identifier.
func (r *Registration) ID() xshm.SegID {
	return r.id
}

// Writable returns true if the peer was allowed to write into the segment.
func (r *Registration) Writable() bool {
	return r.writable
}

// Segment returns the attached segment, or nil if a shadow was attached.
func (r *Registration) Segment() *Segment {
	seg, _ := r.owner.(*Segment)
	return seg
}

// Shadow returns the attached shadow, or nil if a bare segment was attached.
func (r *Registration) Shadow() *Shadow {
	sh, _ := r.owner.(*Shadow)
	return sh
}

// InFlight returns true if a put over the segment has not been completed yet.
func (r *Registration) InFlight() bool {
	return r.pending != nil
}

// Detached returns true after a successful detach.
func (r *Registration) Detached() bool {
	return r.detached
}

func (r *Registration) mustBeAttached(op string) {
	if r.detached {
		panic(&xshm.PreconditionViolation{Op: op, Reason: "segment has been detached"})
	}
}

// Registry attaches segments to the peer and detaches them.
type Registry struct {
	disp    xshm.Display
	live    cmap.ConcurrentMap[xshm.SegID, *Registration]
	opts    []Option
	log     log.Logger
	metrics *Metrics
}

// NewRegistry returns a registry for the given display connection.
// Options are also applied to segments created by the registry.
func NewRegistry(disp xshm.Display, opts ...Option) *Registry {
	cfg := newConfig(opts)
	return &Registry{
		disp: disp,
		live: cmap.NewWithCustomShardingFunction[xshm.SegID, *Registration](func(key xshm.SegID) uint32 {
			return uint32(key)
		}),
		opts:    opts,
		log:     cfg.log,
		metrics: cfg.metrics,
	}
}

// Attach attaches b to the peer and waits for the peer to acknowledge it.
// If writable is true, the peer is allowed to write into the segment,
// which must have been created writable for the peer.
func (r *Registry) Attach(b Backing, writable bool) (*Registration, error) {
	return r.attach(b, writable, true)
}

// AttachUnchecked attaches b without waiting for an acknowledgment.
// A rejection is reported later by the display connection.
func (r *Registry) AttachUnchecked(b Backing, writable bool) (*Registration, error) {
	return r.attach(b, writable, false)
}

func (r *Registry) attach(b Backing, writable, checked bool) (*Registration, error) {
	seg := b.backing()
	if seg.Released() {
		return nil, errors.WithMessage(xshm.ErrReleased, "attach")
	}
	if writable && !seg.PeerWritable() {
		return nil, errors.Wrapf(xshm.ErrPeerReadOnly, "attach shmid %d", seg.id)
	}
	found := false
	r.live.IterCb(func(_ xshm.SegID, reg *Registration) {
		if reg.seg == seg {
			found = true
		}
	})
	if found {
		panic(&xshm.PreconditionViolation{Op: "attach", Reason: "segment is already attached"})
	}
	id, err := r.disp.NewSegID()
	if err != nil {
		err = xshm.AsProtocolOrTransport("allocate segment id", err)
		r.metrics.registration("attach", err)
		return nil, err
	}
	if checked {
		err = r.disp.Attach(id, seg.id, !writable)
	} else {
		err = r.disp.AttachUnchecked(id, seg.id, !writable)
	}
	r.metrics.registration("attach", err)
	if err != nil {
		return nil, xshm.AsProtocolOrTransport("attach", err)
	}
	reg := &Registration{id: id, owner: b, seg: seg, writable: writable}
	r.live.Set(id, reg)
	r.log.With(log.F{"seg": id, "shmid": seg.id, "len": seg.size, "writable": writable}).Debug("segment attached")
	return reg, nil
}

// Detach revokes the registration. It panics if a transfer over the segment is in flight.
// If the peer fails the request, the registration stays valid.
func (r *Registry) Detach(reg *Registration) error {
	reg.mustBeAttached("detach")
	if reg.InFlight() || reg.seg.Shared() {
		panic(&xshm.PreconditionViolation{Op: "detach", Reason: "transfer is in flight"})
	}
	err := r.disp.Detach(reg.id)
	r.metrics.registration("detach", err)
	if err != nil {
		return xshm.AsProtocolOrTransport("detach", err)
	}
	reg.detached = true
	r.live.Remove(reg.id)
	r.log.WithField("seg", reg.id).Debug("segment detached")
	return nil
}

// Destroy detaches the registration and releases its segment or shadow.
// The segment is released even if detach fails.
func (r *Registry) Destroy(reg *Registration) error {
	err := r.Detach(reg)
	if relErr := releaseBacking(reg.owner); relErr != nil && err == nil {
		err = relErr
	}
	return err
}

// Abandon drops the registration without a detach request and releases its
// segment or shadow. Use it when the connection is lost, a transfer over
// the segment may still be in flight.
func (r *Registry) Abandon(reg *Registration) error {
	reg.mustBeAttached("abandon")
	reg.detached = true
	r.live.Remove(reg.id)
	r.log.With(log.F{"seg": reg.id, "in_flight": reg.InFlight()}).Debug("segment abandoned")
	return releaseBacking(reg.owner)
}

// Lookup returns a live registration by its identifier.
func (r *Registry) Lookup(id xshm.SegID) (*Registration, bool) {
	return r.live.Get(id)
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	return r.live.Count()
}

// NewSegment creates a segment, which the peer can only read, and attaches it.
func (r *Registry) NewSegment(size int) (*Registration, error) {
	seg, err := CreateSegment(size, r.opts...)
	if err != nil {
		return nil, err
	}
	return r.attachOrRelease(seg, false)
}

// NewShadow creates a shadow and attaches it.
// If writable is true, the shadow can be used for gets.
func (r *Registry) NewShadow(size int, writable bool) (*Registration, error) {
	var (
		sh  *Shadow
		err error
	)
	if writable {
		sh, err = CreateWritableShadow(size, r.opts...)
	} else {
		sh, err = CreateShadow(size, r.opts...)
	}
	if err != nil {
		return nil, err
	}
	return r.attachOrRelease(sh, writable)
}

func (r *Registry) attachOrRelease(b Backing, writable bool) (*Registration, error) {
	reg, err := r.Attach(b, writable)
	if err != nil {
		if relErr := releaseBacking(b); relErr != nil {
			r.log.WithError(relErr).Warn("failed to release segment after a failed attach")
		}
		return nil, err
	}
	return reg, nil
}

func releaseBacking(b Backing) error {
	switch typed := b.(type) {
	case *Shadow:
		return typed.Release()
	case *Segment:
		return typed.Release()
	}
	return b.backing().release()
}
