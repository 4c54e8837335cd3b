// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	"io"

	"github.com/pkg/errors"

	xshm "github.com/nxgtw/go-xshm"
)

// SegmentReader reads a segment. It holds a reference to the segment, so the former can't be gc'ed.
// The peer may modify a shared segment while it is being read.
// Reads return ErrReleased after the segment has been released.
type SegmentReader struct {
	seg *Segment
	pos int64
}

// NewSegmentReader creates a new reader for the given segment.
func NewSegmentReader(seg *Segment) *SegmentReader {
	return &SegmentReader{seg: seg}
}

// ReadAt is to implement io.ReaderAt.
func (r *SegmentReader) ReadAt(p []byte, off int64) (n int, err error) {
	if r.seg.Released() {
		return 0, xshm.ErrReleased
	}
	if off < 0 {
		return 0, errors.New("negative offset")
	}
	data := r.seg.Bytes()
	if off >= int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(p, data[off:])
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Read is to implement io.Reader.
func (r *SegmentReader) Read(p []byte) (n int, err error) {
	if r.seg.Released() {
		return 0, xshm.ErrReleased
	}
	data := r.seg.Bytes()
	if r.pos >= int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(p, data[r.pos:])
	r.pos += int64(n)
	return n, nil
}

// Seek is to implement io.Seeker.
func (r *SegmentReader) Seek(offset int64, whence int) (int64, error) {
	if r.seg.Released() {
		return 0, xshm.ErrReleased
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = int64(r.seg.Len()) + offset
	default:
		return 0, errors.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	r.pos = abs
	return abs, nil
}

// SegmentWriter writes into a segment. It holds a reference to the segment, so the former can't be gc'ed.
// Writes panic while the segment is shared with the peer.
type SegmentWriter struct {
	seg *Segment
	pos int64
}

// NewSegmentWriter creates a new writer for the given segment.
func NewSegmentWriter(seg *Segment) *SegmentWriter {
	return &SegmentWriter{seg: seg}
}

// WriteAt is to implement io.WriterAt.
func (w *SegmentWriter) WriteAt(p []byte, off int64) (n int, err error) {
	if w.seg.Released() {
		return 0, xshm.ErrReleased
	}
	data := w.seg.MutableBytes()
	if off < 0 || off > int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(data[off:], p)
	if n < len(p) {
		err = io.EOF
	}
	return
}

// Write is to implement io.Writer.
func (w *SegmentWriter) Write(p []byte) (n int, err error) {
	n, err = w.WriteAt(p, w.pos)
	w.pos += int64(n)
	return n, err
}
