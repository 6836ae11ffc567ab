package exif_sync

import (
	"sync"
	"time"
)

const (
	defaultSlidingWindowSize  = 256
	defaultSlidingWindowRange = 30 * time.Second
)

// SlidingWindow counts completion events inside a trailing time range,
// backing the files-per-window throughput shown in sync progress.
type SlidingWindow struct {
	mu     sync.Mutex
	events []time.Time
	head   int
	count  int
	window time.Duration
}

func NewSlidingWindow(capacity int, window time.Duration) *SlidingWindow {
	if capacity < 1 {
		capacity = defaultSlidingWindowSize
	}
	if window <= 0 {
		window = defaultSlidingWindowRange
	}
	return &SlidingWindow{
		events: make([]time.Time, capacity),
		window: window,
	}
}

func (sw *SlidingWindow) Add(eventTime time.Time) {
	if sw == nil {
		return
	}
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.count < len(sw.events) {
		writeIdx := (sw.head + sw.count) % len(sw.events)
		sw.events[writeIdx] = eventTime
		sw.count++
	} else {
		sw.events[sw.head] = eventTime
		sw.head = (sw.head + 1) % len(sw.events)
	}

	sw.trimLocked(eventTime)
}

func (sw *SlidingWindow) Count() int {
	if sw == nil {
		return 0
	}

	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.trimLocked(time.Now())
	return sw.count
}

func (sw *SlidingWindow) trimLocked(now time.Time) {
	cutoff := now.Add(-sw.window)
	for sw.count > 0 {
		oldest := sw.events[sw.head]
		if !oldest.Before(cutoff) {
			break
		}
		sw.head = (sw.head + 1) % len(sw.events)
		sw.count--
	}
}
