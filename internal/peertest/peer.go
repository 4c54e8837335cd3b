// Copyright 2016 Aleksandr Demakin. All rights reserved.

// Package peertest provides an in-process display peer for tests.
// It attaches segments through System V shm the way a real server does,
// records all requests, and delivers scripted events.
package peertest

import (
	"sync"

	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
	"github.com/nxgtw/go-xshm/internal/sysv"
)

// Errors reported as protocol errors.
var (
	ErrBadSegment = errors.New("BadShmSeg")
	ErrBadAccess  = errors.New("BadAccess")
	ErrBadValue   = errors.New("BadValue")
)

// Request is a recorded request.
type Request struct {
	Op        string
	Seg       xshm.SegID
	ShmID     int
	ReadOnly  bool
	Checked   bool
	SendEvent bool
	Put       xshm.PutRequest
	Get       xshm.GetRequest
}

type attachment struct {
	shmid    int
	readOnly bool
}

// Peer implements xshm.Display.
type Peer struct {
	// AutoComplete makes the peer send a completion for every put, which requested it.
	AutoComplete bool
	// Fill is written into every byte of a segment on get.
	Fill byte

	mu       sync.Mutex
	next     xshm.SegID
	attached map[xshm.SegID]attachment
	requests []Request
	received [][]byte
	failures map[string]error
	events   chan xshm.Event
	closed   bool
}

// New returns a peer with room for size undelivered events.
func New(size int) *Peer {
	return &Peer{
		next:     1,
		attached: make(map[xshm.SegID]attachment),
		failures: make(map[string]error),
		events:   make(chan xshm.Event, size),
	}
}

// Fail makes every subsequent request op fail with err.
// op is one of "id", "attach", "detach", "put", "get". A nil err clears the failure.
func (p *Peer) Fail(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, op)
		return
	}
	p.failures[op] = err
}

// NewSegID returns sequential identifiers starting from 1.
func (p *Peer) NewSegID() (xshm.SegID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["id"]; err != nil {
		return 0, err
	}
	id := p.next
	p.next++
	return id, nil
}

// Attach registers a segment.
func (p *Peer) Attach(seg xshm.SegID, shmid int, readOnly bool) error {
	return p.attach(seg, shmid, readOnly, true)
}

// AttachUnchecked registers a segment.
func (p *Peer) AttachUnchecked(seg xshm.SegID, shmid int, readOnly bool) error {
	return p.attach(seg, shmid, readOnly, false)
}

func (p *Peer) attach(seg xshm.SegID, shmid int, readOnly, checked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, Request{Op: "attach", Seg: seg, ShmID: shmid, ReadOnly: readOnly, Checked: checked})
	if err := p.failures["attach"]; err != nil {
		return err
	}
	if !sysv.Exists(shmid) {
		return &xshm.ProtocolError{Op: "attach", Seg: seg, Err: ErrBadAccess}
	}
	p.attached[seg] = attachment{shmid: shmid, readOnly: readOnly}
	return nil
}

// Detach revokes a segment.
func (p *Peer) Detach(seg xshm.SegID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, Request{Op: "detach", Seg: seg, Checked: true})
	if err := p.failures["detach"]; err != nil {
		return err
	}
	if _, ok := p.attached[seg]; !ok {
		return &xshm.ProtocolError{Op: "detach", Seg: seg, Err: ErrBadSegment}
	}
	delete(p.attached, seg)
	return nil
}

// PutImage copies the segment contents and sends a completion if AutoComplete is set.
func (p *Peer) PutImage(seg xshm.SegID, req xshm.PutRequest, sendEvent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, Request{Op: "put", Seg: seg, Put: req, SendEvent: sendEvent, Checked: true})
	if err := p.failures["put"]; err != nil {
		return err
	}
	att, ok := p.attached[seg]
	if !ok {
		return &xshm.ProtocolError{Op: "put", Seg: seg, Err: ErrBadSegment}
	}
	data, err := sysv.Attach(att.shmid, true)
	if err != nil {
		return &xshm.ProtocolError{Op: "put", Seg: seg, Err: errors.Wrap(err, "peer failed to map segment")}
	}
	p.received = append(p.received, append([]byte(nil), data...))
	if err := sysv.Detach(data); err != nil {
		return errors.Wrap(err, "peer failed to unmap segment")
	}
	if sendEvent && p.AutoComplete && !p.closed {
		p.events <- xshm.Completion{Segment: seg, Drawable: req.Drawable, Offset: req.Offset}
	}
	return nil
}

// GetImage fills the segment with Fill.
func (p *Peer) GetImage(seg xshm.SegID, req xshm.GetRequest) (xshm.GetReply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, Request{Op: "get", Seg: seg, Get: req, Checked: true})
	if err := p.failures["get"]; err != nil {
		return xshm.GetReply{}, err
	}
	att, ok := p.attached[seg]
	if !ok {
		return xshm.GetReply{}, &xshm.ProtocolError{Op: "get", Seg: seg, Err: ErrBadSegment}
	}
	if att.readOnly {
		return xshm.GetReply{}, &xshm.ProtocolError{Op: "get", Seg: seg, Err: ErrBadAccess}
	}
	data, err := sysv.Attach(att.shmid, false)
	if err != nil {
		return xshm.GetReply{}, &xshm.ProtocolError{Op: "get", Seg: seg, Err: errors.Wrap(err, "peer failed to map segment")}
	}
	if int(req.Offset) > len(data) {
		sysv.Detach(data)
		return xshm.GetReply{}, &xshm.ProtocolError{Op: "get", Seg: seg, Err: ErrBadValue}
	}
	for i := range data[req.Offset:] {
		data[int(req.Offset)+i] = p.Fill
	}
	size := uint32(len(data)) - req.Offset
	if err := sysv.Detach(data); err != nil {
		return xshm.GetReply{}, errors.Wrap(err, "peer failed to unmap segment")
	}
	return xshm.GetReply{Depth: 24, Visual: 0x21, Size: size}, nil
}

// WaitForEvent returns the next scripted event.
// After Close and once all events have been read, it reports a closed connection.
func (p *Peer) WaitForEvent() (xshm.Event, error) {
	ev, ok := <-p.events
	if !ok {
		return nil, &xshm.TransportError{Op: "wait for event", Err: xshm.ErrConnectionClosed}
	}
	return ev, nil
}

// Send queues an event.
func (p *Peer) Send(evs ...xshm.Event) {
	for _, ev := range evs {
		p.events <- ev
	}
}

// Complete queues completions for the given segments in the given order.
func (p *Peer) Complete(segs ...xshm.SegID) {
	for _, seg := range segs {
		p.events <- xshm.Completion{Segment: seg}
	}
}

// Close ends the event stream.
func (p *Peer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
}

// Requests returns all recorded requests.
func (p *Peer) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Request(nil), p.requests...)
}

// Received returns copies of segments read by puts.
func (p *Peer) Received() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.received...)
}

// Attached returns true if seg is registered.
func (p *Peer) Attached(seg xshm.SegID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.attached[seg]
	return ok
}

// Pattern returns n bytes of a repeating 0..250 sequence.
func Pattern(n int) []byte {
	result := make([]byte, n)
	for i := range result {
		result[i] = byte(i % 251)
	}
	return result
}

var _ xshm.Display = (*Peer)(nil)
