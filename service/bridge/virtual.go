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
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/service/signal"
)

const virtualPinCount = 32

// virtualBridge implements the bridge on hosts without GPIO hardware.
// Lines keep their level in memory; edge waits always time out, so
// single-wire reads report NoResponse instead of hanging.
type virtualBridge struct {
	log     zerolog.Logger
	mutex   sync.Mutex
	claimed map[int]struct{}
}

// NewVirtualBridge implements the bridge for a development host.
func NewVirtualBridge(log zerolog.Logger) (API, error) {
	return &virtualBridge{
		log:     log.With().Str("component", "virtual-bridge").Logger(),
		claimed: make(map[int]struct{}),
	}, nil
}

// Turn Green status led on/off
func (p *virtualBridge) SetGreenLED(on bool) error {
	p.log.Debug().Bool("on", on).Msg("green led")
	return nil
}

// Turn Red status led on/off
func (p *virtualBridge) SetRedLED(on bool) error {
	p.log.Debug().Bool("on", on).Msg("red led")
	return nil
}

// Blink Green status led with given duration between on/off
func (p *virtualBridge) BlinkGreenLED(delay time.Duration) error {
	return nil
}

// Blink Red status led with given duration between on/off
func (p *virtualBridge) BlinkRedLED(delay time.Duration) error {
	return nil
}

// Returns number of local pins
func (p *virtualBridge) PinCount() int {
	return virtualPinCount
}

// Line claims the GPIO line with the given pin number.
func (p *virtualBridge) Line(pinNumber int) (Line, error) {
	if pinNumber < 0 || pinNumber >= virtualPinCount {
		return nil, errors.Wrapf(InvalidPinError, "pin %d out of range [0..%d]", pinNumber, virtualPinCount-1)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, found := p.claimed[pinNumber]; found {
		return nil, errors.Wrapf(PinInUseError, "pin %d", pinNumber)
	}
	p.claimed[pinNumber] = struct{}{}
	lineClaimsTotal.Inc()
	return &virtualLine{
		release: func() {
			p.mutex.Lock()
			delete(p.claimed, pinNumber)
			p.mutex.Unlock()
			lineReleasesTotal.Inc()
		},
	}, nil
}

func (p *virtualBridge) Close() error {
	return nil
}

type virtualLine struct {
	mutex   sync.Mutex
	level   bool
	release func()
}

var _ Line = &virtualLine{}

func (l *virtualLine) SetDirection(direction signal.Direction) error { return nil }

func (l *virtualLine) Set(level bool) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.level = level
	return nil
}

func (l *virtualLine) Get() (bool, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.level, nil
}

func (l *virtualLine) WaitForEdge(timeout time.Duration) (signal.Edge, error) {
	time.Sleep(timeout)
	return 0, maskAny(signal.ErrEdgeTimeout)
}

func (l *virtualLine) Close() error {
	if l.release != nil {
		l.release()
		l.release = nil
	}
	return nil
}
