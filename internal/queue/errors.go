package queue

import "errors"

// ErrQueueFull is returned when the queue is at capacity and every entry is
// pinned, so nothing can be evicted to make room. The queue is unchanged.
var ErrQueueFull = errors.New("queue is full: all entries are pinned")

// ErrInvalidKind is returned when an image is recorded with a non-image kind.
var ErrInvalidKind = errors.New("invalid entry kind")
