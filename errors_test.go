// Copyright 2016 Aleksandr Demakin. All rights reserved.

package xshm

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	a := assert.New(t)
	cause := errors.New("ENOSPC")
	alloc := errors.Wrap(&AllocationError{Size: 10, Err: cause}, "create")
	a.True(IsAllocation(alloc))
	a.False(IsMap(alloc))
	a.Equal(cause, errors.Cause(alloc))

	mapErr := &MapError{ID: 5, Err: cause}
	a.True(IsMap(mapErr))
	a.EqualError(mapErr, "failed to map shm segment 5: ENOSPC")

	proto := &ProtocolError{Op: "attach", Seg: 3, Err: cause}
	a.True(IsProtocol(proto))
	a.False(IsTransport(proto))
	a.EqualError(proto, "attach (seg 3) rejected by peer: ENOSPC")
	a.EqualError(&ProtocolError{Op: "attach", Err: cause}, "attach rejected by peer: ENOSPC")

	closed := &TransportError{Op: "wait for event", Err: ErrConnectionClosed}
	a.True(IsTransport(closed))
	a.True(errors.Is(closed, ErrConnectionClosed))
}

func TestAsProtocolOrTransport(t *testing.T) {
	a := assert.New(t)
	a.NoError(AsProtocolOrTransport("put", nil))

	err := AsProtocolOrTransport("put", errors.New("broken pipe"))
	a.True(IsTransport(err))
	a.EqualError(err, "put: connection failure: broken pipe")

	proto := &ProtocolError{Op: "put", Seg: 1, Err: errors.New("BadShmSeg")}
	err = AsProtocolOrTransport("put", proto)
	a.True(IsProtocol(err))
	a.False(IsTransport(err))
	var target *ProtocolError
	if a.True(errors.As(err, &target)) {
		a.Equal(SegID(1), target.Seg)
	}
	a.Equal(error(proto), err)

	closed := &TransportError{Op: "wait for event", Err: ErrConnectionClosed}
	err = AsProtocolOrTransport("wait for event", closed)
	a.EqualError(err, "wait for event: connection failure: display connection closed")

	err = AsProtocolOrTransport("get", closed)
	a.True(IsTransport(err))
	a.EqualError(err, "get: wait for event: connection failure: display connection closed")
}
