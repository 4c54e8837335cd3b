// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"context"

	"github.com/lthibault/log"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	xshm "github.com/nxgtw/go-xshm"
)

const defaultQueueHint = 64

// Pending is a put, which the peer has not confirmed yet.
type Pending struct {
	reg  *Registration
	done bool
}

// Done returns true once the completion for the put has been received.
func (p *Pending) Done() bool {
	return p.done
}

// Registration returns the segment the put reads from.
func (p *Pending) Registration() *Registration {
	return p.reg
}

// Coordinator runs puts and gets over attached segments.
// It is not safe for concurrent use, there must be one coordinator
// per display connection, and it must be the only reader of its events.
type Coordinator struct {
	disp    xshm.Display
	sink    EventSink
	pending map[xshm.SegID]*Pending
	log     log.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// NewCoordinator returns a coordinator for the given display connection.
// If no sink is set with WithSink, events are forwarded to an EventQueue, see Events.
func NewCoordinator(disp xshm.Display, opts ...Option) *Coordinator {
	cfg := newConfig(opts)
	sink := cfg.sink
	if sink == nil {
		sink = NewEventQueue(defaultQueueHint)
	}
	return &Coordinator{
		disp:    disp,
		sink:    sink,
		pending: make(map[xshm.SegID]*Pending),
		log:     cfg.log,
		metrics: cfg.metrics,
		tracer:  cfg.tracer,
	}
}

// Events returns the default sink, or nil if a custom sink was set.
func (c *Coordinator) Events() *EventQueue {
	q, _ := c.sink.(*EventQueue)
	return q
}

// InFlight returns the number of unconfirmed puts.
func (c *Coordinator) InFlight() int {
	return len(c.pending)
}

// Put asks the peer to draw an image from the segment and waits for the completion.
// If reg is a shadow, its private buffer is pushed to the segment first.
// Events received while waiting are forwarded to the sink.
// The context is checked between events, a blocked read is not interrupted.
func (c *Coordinator) Put(ctx context.Context, reg *Registration, req xshm.PutRequest) error {
	ctx, span := c.tracer.Start(ctx, "xshm.put", trace.WithAttributes(attribute.Int64("seg", int64(reg.id))))
	defer span.End()
	p, err := c.PutAsync(reg, req)
	if err == nil {
		err = c.Await(ctx, p)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// PutAsync asks the peer to draw an image from the segment and returns without waiting.
// The segment stays shared until the completion is received by Await, Pump,
// or while waiting for any other put.
// It panics if the segment is already shared or detached.
// After a connection failure the segment is left shared and must not be reused.
func (c *Coordinator) PutAsync(reg *Registration, req xshm.PutRequest) (*Pending, error) {
	reg.mustBeAttached("put")
	if reg.InFlight() || reg.seg.Shared() {
		panic(&xshm.PreconditionViolation{Op: "put", Reason: "segment is shared with the peer"})
	}
	if reg.seg.Released() {
		return nil, errors.WithMessage(xshm.ErrReleased, "put")
	}
	if sh := reg.Shadow(); sh != nil {
		sh.Push()
	}
	reg.seg.setShared(true)
	err := c.disp.PutImage(reg.id, req, true)
	c.metrics.transfer("put", err)
	if err != nil {
		if xshm.IsProtocol(err) {
			reg.seg.setShared(false)
		}
		return nil, xshm.AsProtocolOrTransport("put", err)
	}
	p := &Pending{reg: reg}
	reg.pending = p
	c.pending[reg.id] = p
	c.log.WithField("seg", reg.id).Trace("put sent")
	return p, nil
}

// Await reads events until the completion for p arrives.
func (c *Coordinator) Await(ctx context.Context, p *Pending) error {
	if p.done {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "xshm.await", trace.WithAttributes(attribute.Int64("seg", int64(p.reg.id))))
	defer span.End()
	for !p.done {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return errors.Wrapf(err, "waiting for completion of seg %d", p.reg.id)
		}
		if err := c.step(p.reg.id); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

// Pump reads one event. A completion for an unconfirmed put releases its segment.
// All events are forwarded to the sink.
func (c *Coordinator) Pump() error {
	return c.step(xshm.NoSegment)
}

// Get asks the peer to write an image into the segment and waits for the reply.
// The segment must have been attached as writable.
// If reg is a shadow, call Pull before reading the result, or use GetInto.
// It panics if the segment is shared or detached.
func (c *Coordinator) Get(ctx context.Context, reg *Registration, req xshm.GetRequest) (xshm.GetReply, error) {
	reg.mustBeAttached("get")
	if reg.InFlight() || reg.seg.Shared() {
		panic(&xshm.PreconditionViolation{Op: "get", Reason: "segment is shared with the peer"})
	}
	if !reg.writable {
		return xshm.GetReply{}, errors.Wrapf(xshm.ErrPeerReadOnly, "get over seg %d", reg.id)
	}
	if reg.seg.Released() {
		return xshm.GetReply{}, errors.WithMessage(xshm.ErrReleased, "get")
	}
	_, span := c.tracer.Start(ctx, "xshm.get", trace.WithAttributes(attribute.Int64("seg", int64(reg.id))))
	defer span.End()
	reg.seg.setShared(true)
	reply, err := c.disp.GetImage(reg.id, req)
	c.metrics.transfer("get", err)
	if err == nil || xshm.IsProtocol(err) {
		reg.seg.setShared(false)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return xshm.GetReply{}, xshm.AsProtocolOrTransport("get", err)
	}
	if int(reply.Size) > reg.seg.Len() {
		c.log.With(log.F{"seg": reg.id, "size": reply.Size, "len": reg.seg.Len()}).
			Warn("peer reported more data than the segment holds")
	}
	return reply, nil
}

// GetInto runs Get over a shadow and pulls the result into its private buffer.
func (c *Coordinator) GetInto(ctx context.Context, reg *Registration, req xshm.GetRequest) (xshm.GetReply, error) {
	sh := reg.Shadow()
	if sh == nil {
		panic(&xshm.PreconditionViolation{Op: "get into", Reason: "registration is not a shadow"})
	}
	reply, err := c.Get(ctx, reg, req)
	if err != nil {
		return reply, err
	}
	sh.Pull()
	return reply, nil
}

func (c *Coordinator) step(target xshm.SegID) error {
	ev, err := c.disp.WaitForEvent()
	if err != nil {
		return xshm.AsProtocolOrTransport("wait for event", err)
	}
	return c.dispatch(ev, target)
}

func (c *Coordinator) dispatch(ev xshm.Event, target xshm.SegID) error {
	switch Classify(ev, target) {
	case Match:
		c.complete(c.pending[target])
		return nil
	case Ignore:
		return nil
	}
	if cpl, ok := completionOf(ev); ok {
		if p, found := c.pending[cpl.Segment]; found {
			c.complete(p)
		}
	}
	c.metrics.forward()
	c.log.WithField("event", ev).Trace("event forwarded")
	return errors.Wrap(c.sink.Push(ev), "failed to forward an event")
}

func (c *Coordinator) complete(p *Pending) {
	if p == nil {
		return
	}
	p.done = true
	p.reg.pending = nil
	p.reg.seg.setShared(false)
	delete(c.pending, p.reg.id)
	c.metrics.completion()
	c.log.WithField("seg", p.reg.id).Trace("put completed")
}
