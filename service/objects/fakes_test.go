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

package objects

import (
	"time"

	"github.com/pkg/errors"

	"github.com/gpiokit/SignalWorker/service/bridge"
	"github.com/gpiokit/SignalWorker/service/signal"
)

// testLine is an in-memory bridge.Line.
// An optional onSet hook observes every level change.
type testLine struct {
	level  bool
	closed bool
	onSet  func(old, level bool)
}

func (l *testLine) SetDirection(d signal.Direction) error { return nil }

func (l *testLine) Set(level bool) error {
	old := l.level
	l.level = level
	if l.onSet != nil {
		l.onSet(old, level)
	}
	return nil
}

func (l *testLine) Get() (bool, error) { return l.level, nil }

func (l *testLine) WaitForEdge(timeout time.Duration) (signal.Edge, error) {
	return signal.EdgeRising, signal.ErrEdgeTimeout
}

func (l *testLine) Close() error {
	l.closed = true
	return nil
}

// testBridge hands out testLines and records which pins were claimed.
type testBridge struct {
	lines    map[int]*testLine
	failPins map[int]struct{}
}

func newTestBridge() *testBridge {
	return &testBridge{
		lines:    make(map[int]*testLine),
		failPins: make(map[int]struct{}),
	}
}

func (b *testBridge) SetGreenLED(on bool) error           { return nil }
func (b *testBridge) SetRedLED(on bool) error             { return nil }
func (b *testBridge) BlinkGreenLED(d time.Duration) error { return nil }
func (b *testBridge) BlinkRedLED(d time.Duration) error   { return nil }
func (b *testBridge) PinCount() int                       { return 64 }

func (b *testBridge) Line(pinNumber int) (bridge.Line, error) {
	if _, found := b.failPins[pinNumber]; found {
		return nil, errors.Errorf("pin %d unavailable", pinNumber)
	}
	l := &testLine{}
	b.lines[pinNumber] = l
	return l, nil
}

func (b *testBridge) Close() error { return nil }
