// Copyright 2016 Aleksandr Demakin. All rights reserved.

package shm

import (
	xshm "github.com/nxgtw/go-xshm"
)

// Verdict tells what to do with an event received while waiting for a completion.
type Verdict int

const (
	// Forward means the event must be passed to the sink.
	Forward Verdict = iota
	// Match means the event is the awaited completion.
	Match
	// Ignore means the event carries nothing and must be dropped.
	Ignore
)

func (v Verdict) String() string {
	switch v {
	case Forward:
		return "forward"
	case Match:
		return "match"
	case Ignore:
		return "ignore"
	}
	return "unknown"
}

// Classify decides what to do with ev while waiting for a completion for target.
// Completions are matched by segment identifier only.
// NoSegment target never matches, so every event is forwarded.
func Classify(ev xshm.Event, target xshm.SegID) Verdict {
	if ev == nil {
		return Ignore
	}
	if ptr, ok := ev.(*xshm.Completion); ok && ptr == nil {
		return Ignore
	}
	if cpl, ok := completionOf(ev); ok && target != xshm.NoSegment && cpl.Segment == target {
		return Match
	}
	return Forward
}

func completionOf(ev xshm.Event) (xshm.Completion, bool) {
	switch typed := ev.(type) {
	case xshm.Completion:
		return typed, true
	case *xshm.Completion:
		if typed != nil {
			return *typed, true
		}
	}
	return xshm.Completion{}, false
}
