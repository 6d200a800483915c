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

package bridge

import (
	"runtime"
	"sync"
	"time"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"

	"github.com/gpiokit/SignalWorker/service/signal"
)

// sysfsLine exposes one sysfs GPIO pin as a signal.Line.
// Direction switches re-request the pin in the new mode, which is how
// the single-wire protocol turns the line around mid-transaction.
type sysfsLine struct {
	mutex   sync.Mutex
	pin     int
	in      gpio.InputPin
	out     gpio.OutputPin
	level   bool // last written level, only meaningful in output mode
	closed  bool
	release func()
}

var _ Line = &sysfsLine{}

// SetDirection switches the line between input and output mode.
func (l *sysfsLine) SetDirection(direction signal.Direction) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.closed {
		return errors.Wrapf(InvalidPinError, "pin %d closed", l.pin)
	}
	switch direction {
	case signal.DirectionInput:
		if l.in != nil {
			return nil
		}
		in, err := gpio.Input(l.pin, false)
		if err != nil {
			return maskAny(err)
		}
		l.in = in
		l.out = nil
	case signal.DirectionOutput:
		if l.out != nil {
			return nil
		}
		out, err := gpio.Output(l.pin, false, l.level)
		if err != nil {
			return maskAny(err)
		}
		l.out = out
		l.in = nil
	default:
		return errors.Wrapf(InvalidPinError, "unknown direction %d", direction)
	}
	return nil
}

// Set drives the line to the given level.
func (l *sysfsLine) Set(level bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.out == nil {
		return errors.Wrapf(InvalidPinError, "pin %d not in output mode", l.pin)
	}
	if err := l.out.Write(level); err != nil {
		return maskAny(err)
	}
	l.level = level
	return nil
}

// Get returns the current level of the line.
func (l *sysfsLine) Get() (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.getLocked()
}

func (l *sysfsLine) getLocked() (bool, error) {
	if l.in != nil {
		level, err := l.in.Read()
		if err != nil {
			return false, maskAny(err)
		}
		return level, nil
	}
	if l.out != nil {
		return l.level, nil
	}
	return false, errors.Wrapf(InvalidPinError, "pin %d has no direction", l.pin)
}

// WaitForEdge polls the line until the level changes or the timeout
// expires. Sysfs offers no microsecond event interface, so this is a
// busy poll; the read syscall itself dominates the loop.
func (l *sysfsLine) WaitForEdge(timeout time.Duration) (signal.Edge, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	before, err := l.getLocked()
	if err != nil {
		return 0, maskAny(err)
	}
	deadline := time.Now().Add(timeout)
	for {
		level, err := l.getLocked()
		if err != nil {
			return 0, maskAny(err)
		}
		if level != before {
			if level {
				return signal.EdgeRising, nil
			}
			return signal.EdgeFalling, nil
		}
		if time.Now().After(deadline) {
			lineWaitTimeoutsTotal.Inc()
			return 0, maskAny(signal.ErrEdgeTimeout)
		}
		runtime.Gosched()
	}
}

// Close releases the pin for future claims.
// The line is left in input mode, the safe state for an unowned pin.
func (l *sysfsLine) Close() error {
	l.mutex.Lock()
	if l.closed {
		l.mutex.Unlock()
		return nil
	}
	l.closed = true
	if l.out != nil {
		if in, err := gpio.Input(l.pin, false); err == nil {
			l.in = in
		}
		l.out = nil
	}
	release := l.release
	l.mutex.Unlock()
	if release != nil {
		release()
	}
	return nil
}
