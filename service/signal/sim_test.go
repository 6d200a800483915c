//    Copyright 2024 The GPIOKit authors
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package signal

import (
	"sync"
	"time"
)

// virtualClock advances only when something sleeps on it.
type virtualClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *virtualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) Sleep(d time.Duration) {
	c.advance(d)
}

func (c *virtualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// levelSample records a level transition with its virtual timestamp.
type levelSample struct {
	at    time.Duration
	level bool
}

// recordingLine is an output line that records every Set with the
// virtual time at which it happened.
type recordingLine struct {
	clock *virtualClock

	mu        sync.Mutex
	level     bool
	changes   []levelSample
	remaining int // number of Set calls before failure; <0 means never fail
	setErr    error
}

func newRecordingLine(clock *virtualClock) *recordingLine {
	return &recordingLine{clock: clock, remaining: -1}
}

func (l *recordingLine) SetDirection(direction Direction) error { return nil }

func (l *recordingLine) Set(level bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remaining == 0 {
		return l.setErr
	}
	if l.remaining > 0 {
		l.remaining--
	}
	l.level = level
	l.changes = append(l.changes, levelSample{at: l.clock.Now(), level: level})
	return nil
}

func (l *recordingLine) Get() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level, nil
}

func (l *recordingLine) WaitForEdge(timeout time.Duration) (Edge, error) {
	l.clock.advance(timeout)
	return 0, ErrEdgeTimeout
}

func (l *recordingLine) snapshot() (bool, []levelSample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	changes := make([]levelSample, len(l.changes))
	copy(changes, l.changes)
	return l.level, changes
}

// edgeEvent is one scripted edge: it arrives `after` the moment the
// reader starts waiting for it.
type edgeEvent struct {
	after time.Duration
	edge  Edge
}

// scriptLine replays a fixed sequence of edges against a virtual clock.
// Host-side Set/SetDirection calls are accepted and ignored, matching a
// device that only watches for the start signal.
type scriptLine struct {
	clock  *virtualClock
	events []edgeEvent
	next   int
}

func (l *scriptLine) SetDirection(direction Direction) error { return nil }
func (l *scriptLine) Set(level bool) error                   { return nil }
func (l *scriptLine) Get() (bool, error)                     { return false, nil }

func (l *scriptLine) WaitForEdge(timeout time.Duration) (Edge, error) {
	if l.next >= len(l.events) {
		l.clock.advance(timeout)
		return 0, ErrEdgeTimeout
	}
	ev := l.events[l.next]
	if ev.after > timeout {
		l.clock.advance(timeout)
		return 0, ErrEdgeTimeout
	}
	l.next++
	l.clock.advance(ev.after)
	return ev.edge, nil
}

// deviceResponse builds the edge script of a complete device answer:
// acknowledgement followed by 40 pulse-width encoded bits.
func deviceResponse(t Timing, payload [5]byte) []edgeEvent {
	events := []edgeEvent{
		{after: 30 * time.Microsecond, edge: EdgeFalling},
		{after: 80 * time.Microsecond, edge: EdgeRising},
		{after: 80 * time.Microsecond, edge: EdgeFalling},
	}
	for _, b := range payload {
		for bit := 7; bit >= 0; bit-- {
			pulse := t.ZeroPulse
			if b&(1<<uint(bit)) != 0 {
				pulse = t.OnePulse
			}
			events = append(events,
				edgeEvent{after: 50 * time.Microsecond, edge: EdgeRising},
				edgeEvent{after: pulse, edge: EdgeFalling},
			)
		}
	}
	return events
}
