// Copyright 2016 Aleksandr Demakin. All rights reserved.

package xshm

// SegID is a peer-visible identifier of an attached segment.
type SegID uint32

// NoSegment is never allocated by the peer.
const NoSegment SegID = 0

// Drawable is a window or a pixmap on the peer.
type Drawable uint32

// GContext is a graphics context on the peer.
type GContext uint32

// Pixmap is an off-screen image on the peer.
type Pixmap uint32

// Format is an image format.
type Format uint8

// Image formats, as defined by the core protocol.
const (
	FormatXYBitmap Format = iota
	FormatXYPixmap
	FormatZPixmap
)

// PutRequest describes a rectangle of an image stored in a segment,
// which is drawn onto a drawable.
type PutRequest struct {
	Drawable Drawable
	GC       GContext
	// TotalWidth and TotalHeight are the dimensions of the whole image in the segment.
	TotalWidth  uint16
	TotalHeight uint16
	SrcX        uint16
	SrcY        uint16
	Width       uint16
	Height      uint16
	DstX        int16
	DstY        int16
	Depth       uint8
	Format      Format
	// Offset of the image from the start of the segment.
	Offset uint32
}

// GetRequest describes a rectangle of a drawable, which the peer writes into a segment.
type GetRequest struct {
	Drawable  Drawable
	X         int16
	Y         int16
	Width     uint16
	Height    uint16
	PlaneMask uint32
	Format    Format
	Offset    uint32
}

// GetReply carries metadata of a completed get.
type GetReply struct {
	Depth  uint8
	Visual uint32
	// Size is the number of bytes written into the segment.
	Size uint32
}

// Completion is sent by the peer when it has finished reading a segment used in a put.
type Completion struct {
	Segment    SegID
	Drawable   Drawable
	Offset     uint32
	MinorEvent uint16
	MajorEvent uint8
}

// Event is any event produced by the peer. Completion notifications are
// delivered as Completion values, other events are passed as they are.
type Event interface{}

// IDAllocator obtains fresh identifiers for naming segments to the peer.
type IDAllocator interface {
	NewSegID() (SegID, error)
}

// Requester sends segment related requests to the peer.
// Errors must be *ProtocolError if the peer rejected the request,
// any other error is treated as a connection failure.
type Requester interface {
	// Attach registers the system segment shmid under seg and waits for the peer to confirm it.
	Attach(seg SegID, shmid int, readOnly bool) error
	// AttachUnchecked registers the segment without waiting for a confirmation.
	AttachUnchecked(seg SegID, shmid int, readOnly bool) error
	// Detach revokes seg and waits for the peer to confirm it.
	Detach(seg SegID) error
	// PutImage asks the peer to read an image from seg.
	// If sendEvent is true, the peer sends a Completion once it is done with the segment.
	PutImage(seg SegID, req PutRequest, sendEvent bool) error
	// GetImage asks the peer to write an image into seg and waits for the reply.
	GetImage(seg SegID, req GetRequest) (GetReply, error)
}

// EventSource is a blocking stream of peer events.
type EventSource interface {
	// WaitForEvent blocks until the next event arrives.
	// It returns a *TransportError wrapping ErrConnectionClosed when the stream has ended.
	WaitForEvent() (Event, error)
}

// Display is the display protocol connection used to share segments with a peer.
type Display interface {
	IDAllocator
	Requester
	EventSource
}
