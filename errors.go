// Copyright 2016 Aleksandr Demakin. All rights reserved.

package xshm

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrReleased is returned when a segment or a transport is used after it was released.
	ErrReleased = errors.New("shm segment has been released")
	// ErrPeerReadOnly is returned when a segment, which the peer cannot write to,
	// is used for an operation, where the peer writes into it.
	ErrPeerReadOnly = errors.New("shm segment is read-only for the peer")
	// ErrConnectionClosed is returned when the event stream of the peer has ended.
	ErrConnectionClosed = errors.New("display connection closed")
)

// AllocationError is returned when the system refuses to create a shared memory segment.
type AllocationError struct {
	Size int
	Err  error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("failed to allocate a %d byte shm segment: %v", e.Size, e.Err)
}

// Cause returns the underlying error.
func (e *AllocationError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *AllocationError) Unwrap() error { return e.Err }

// MapError is returned when a segment was allocated, but could not be
// mapped into the address space. The segment is destroyed before the error is returned.
type MapError struct {
	ID  int
	Err error
}

func (e *MapError) Error() string {
	return fmt.Sprintf("failed to map shm segment %d: %v", e.ID, e.Err)
}

// Cause returns the underlying error.
func (e *MapError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *MapError) Unwrap() error { return e.Err }

// ProtocolError is returned when the peer rejects or fails a request.
type ProtocolError struct {
	Op  string
	Seg SegID
	Err error
}

func (e *ProtocolError) Error() string {
	if e.Seg != NoSegment {
		return fmt.Sprintf("%s (seg %d) rejected by peer: %v", e.Op, e.Seg, e.Err)
	}
	return fmt.Sprintf("%s rejected by peer: %v", e.Op, e.Err)
}

// Cause returns the underlying error.
func (e *ProtocolError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *ProtocolError) Unwrap() error { return e.Err }

// TransportError is returned when the connection to the peer fails
// while sending a request or waiting for a reply or an event.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: connection failure: %v", e.Op, e.Err)
}

// Cause returns the underlying error.
func (e *TransportError) Cause() error { return e.Err }

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error { return e.Err }

// PreconditionViolation means that the caller broke the ordering contract,
// for example mutated a segment, which is visible to the peer.
// It is never returned, the library panics with it.
type PreconditionViolation struct {
	Op     string
	Reason string
}

func (e *PreconditionViolation) Error() string {
	return fmt.Sprintf("precondition violation in %s: %s", e.Op, e.Reason)
}

// IsAllocation returns true if err is or wraps an *AllocationError.
func IsAllocation(err error) bool {
	var target *AllocationError
	return errors.As(err, &target)
}

// IsMap returns true if err is or wraps a *MapError.
func IsMap(err error) bool {
	var target *MapError
	return errors.As(err, &target)
}

// IsProtocol returns true if err is or wraps a *ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsTransport returns true if err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// AsProtocolOrTransport keeps protocol and transport errors as they are
// and turns any other error into a *TransportError for the given operation.
// A typed error of another operation gets op as a prefix.
func AsProtocolOrTransport(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		protoErr     *ProtocolError
		transportErr *TransportError
	)
	switch {
	case errors.As(err, &protoErr):
		if protoErr.Op == op {
			return err
		}
	case errors.As(err, &transportErr):
		if transportErr.Op == op {
			return err
		}
	default:
		return &TransportError{Op: op, Err: err}
	}
	return errors.WithMessage(err, op)
}
