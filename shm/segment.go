// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"os"
	"runtime"
	"sync/atomic"

	"github.com/lthibault/log"
	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
	"github.com/nxgtw/go-xshm/internal/sysv"
)

const (
	// PeerReadOnly is the mode of segments, which the peer only reads from.
	PeerReadOnly os.FileMode = 0644
	// PeerWritable is the mode of segments, which the peer writes into.
	// Any process of any user can modify such a segment.
	PeerWritable os.FileMode = 0666
)

// Segment is a System V shared memory segment mapped into the process.
// Warning. The internal object has a finalizer set,
// so the segment will be destroyed during the gc.
// Do not keep the result of Bytes() longer than the segment itself.
type Segment struct {
	*segment
}

type segment struct {
	id      int
	data    []byte
	size    int
	perm    os.FileMode
	shared  atomic.Bool
	log     log.Logger
	metrics *Metrics
}

// CreateSegment creates a segment of the given size, which the peer can only read.
func CreateSegment(size int, opts ...Option) (*Segment, error) {
	return NewSegment(size, PeerReadOnly, opts...)
}

// CreateWritableSegment creates a segment of the given size, which the peer can write into.
// It should be used only for gets.
func CreateWritableSegment(size int, opts ...Option) (*Segment, error) {
	return NewSegment(size, PeerWritable, opts...)
}

// NewSegment creates a segment with the given permission bits.
// 	size - segment size in bytes, must be positive.
// 	perm - permissions of the segment. The owner must be able to read and write.
func NewSegment(size int, perm os.FileMode, opts ...Option) (*Segment, error) {
	if perm&0600 != 0600 {
		panic(&xshm.PreconditionViolation{Op: "create segment", Reason: "the owner must be able to read and write"})
	}
	cfg := newConfig(opts)
	impl, err := newSegmentImpl(size, perm.Perm(), cfg)
	if err != nil {
		return nil, err
	}
	result := &Segment{impl}
	runtime.SetFinalizer(impl, func(s *segment) {
		s.release()
	})
	return result, nil
}

func newSegmentImpl(size int, perm os.FileMode, cfg Config) (*segment, error) {
	if size <= 0 {
		return nil, &xshm.AllocationError{Size: size, Err: errors.New("size must be positive")}
	}
	id, err := sysv.Get(size, perm)
	if err != nil {
		return nil, &xshm.AllocationError{Size: size, Err: err}
	}
	data, err := sysv.Attach(id, false)
	if err != nil {
		if rmErr := sysv.Remove(id); rmErr != nil {
			cfg.log.WithError(rmErr).WithField("shmid", id).Warn("failed to remove unmapped segment")
		}
		return nil, &xshm.MapError{ID: id, Err: err}
	}
	cfg.log.With(log.F{"shmid": id, "len": size}).Debug("segment created")
	cfg.metrics.segmentCreated(size)
	return &segment{id: id, data: data[:size], size: size, perm: perm, log: cfg.log, metrics: cfg.metrics}, nil
}

// ID returns the system identifier of the segment, or -1 if it has been released.
func (s *segment) ID() int {
	if s.data == nil {
		return -1
	}
	return s.id
}

// Len returns segment size. It does not change after the release.
func (s *segment) Len() int {
	return s.size
}

// Bytes returns the mapped memory for reading.
// The peer may be writing into it at the same time, if the segment is shared.
func (s *segment) Bytes() []byte {
	return s.data
}

// MutableBytes returns the mapped memory for modification.
// It panics if the segment is shared with the peer.
func (s *segment) MutableBytes() []byte {
	if s.shared.Load() {
		panic(&xshm.PreconditionViolation{Op: "mutable bytes", Reason: "segment is shared with the peer"})
	}
	return s.data
}

// Shared returns true if the peer holds a claim on the segment.
func (s *segment) Shared() bool {
	return s.shared.Load()
}

// PeerWritable returns true if the segment was created with write permissions for other users.
func (s *segment) PeerWritable() bool {
	return s.perm&0022 != 0
}

// Released returns true after the segment has been released.
func (s *segment) Released() bool {
	return s.data == nil
}

// Release unmaps and destroys the segment. Subsequent calls do nothing.
// If the peer still has the segment attached, the system destroys it
// once the peer detaches it as well.
func (s *segment) Release() error {
	return s.release()
}

func (s *segment) setShared(shared bool) {
	s.shared.Store(shared)
}

func (s *segment) backing() *segment {
	return s
}

func (s *segment) release() error {
	data, id := s.data, s.id
	if data == nil {
		return nil
	}
	s.data, s.id = nil, -1
	runtime.SetFinalizer(s, nil)
	var result error
	if err := sysv.Detach(data); err != nil {
		result = errors.Wrap(err, "failed to unmap shm segment")
	}
	if err := sysv.Remove(id); err != nil {
		s.log.WithError(err).WithField("shmid", id).Warn("failed to remove segment")
		if result == nil {
			result = errors.Wrap(err, "failed to remove shm segment")
		}
	}
	s.metrics.segmentReleased(s.size)
	s.log.WithField("shmid", id).Debug("segment released")
	return result
}
