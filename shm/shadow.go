// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"github.com/valyala/bytebufferpool"

	xshm "github.com/nxgtw/go-xshm"
)

// Shadow is a segment paired with a private buffer of the same size.
// The application works with the private buffer only, the data is copied
// to and from the segment with Push and Pull.
type Shadow struct {
	buf *bytebufferpool.ByteBuffer
	seg *Segment
}

// CreateShadow creates a shadow for puts. The peer can only read its segment.
func CreateShadow(size int, opts ...Option) (*Shadow, error) {
	seg, err := CreateSegment(size, opts...)
	if err != nil {
		return nil, err
	}
	return newShadow(seg), nil
}

// CreateWritableShadow creates a shadow for gets. The peer can write into its segment.
func CreateWritableShadow(size int, opts ...Option) (*Shadow, error) {
	seg, err := CreateWritableSegment(size, opts...)
	if err != nil {
		return nil, err
	}
	return newShadow(seg), nil
}

func newShadow(seg *Segment) *Shadow {
	buf := bytebufferpool.Get()
	if cap(buf.B) >= seg.Len() {
		buf.B = buf.B[:seg.Len()]
		clear(buf.B)
	} else {
		buf.B = make([]byte, seg.Len())
	}
	return &Shadow{buf: buf, seg: seg}
}

// Bytes returns the private buffer. It is always safe to read and modify.
func (s *Shadow) Bytes() []byte {
	if s.buf == nil {
		return nil
	}
	return s.buf.B
}

// Len returns the size of the buffer and the segment.
func (s *Shadow) Len() int {
	return s.seg.Len()
}

// ID returns the system identifier of the segment.
func (s *Shadow) ID() int {
	return s.seg.ID()
}

// Shared returns true if the peer holds a claim on the segment.
func (s *Shadow) Shared() bool {
	return s.seg.Shared()
}

// Pull copies the whole segment into the private buffer.
// Call it only after the peer has finished writing, otherwise the buffer may
// contain partially written data.
func (s *Shadow) Pull() {
	if s.buf == nil {
		panic(&xshm.PreconditionViolation{Op: "pull", Reason: "transport has been released"})
	}
	n := copy(s.buf.B, s.seg.Bytes())
	s.seg.metrics.copy("pull", n)
}

// Push copies the private buffer into the segment.
// It panics if the segment is shared with the peer.
func (s *Shadow) Push() {
	if s.buf == nil {
		panic(&xshm.PreconditionViolation{Op: "push", Reason: "transport has been released"})
	}
	if s.seg.Shared() {
		panic(&xshm.PreconditionViolation{Op: "push", Reason: "segment is shared with the peer"})
	}
	n := copy(s.seg.data, s.buf.B)
	s.seg.metrics.copy("push", n)
}

// Release destroys the segment and drops the private buffer.
// Subsequent calls do nothing.
func (s *Shadow) Release() error {
	if s.buf == nil {
		return nil
	}
	// not returned to the pool: slices obtained from Bytes may outlive the shadow.
	s.buf = nil
	return s.seg.Release()
}

func (s *Shadow) backing() *segment {
	return s.seg.segment
}
