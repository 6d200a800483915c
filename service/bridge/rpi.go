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
	"context"
	"sync"
	"time"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"
)

const (
	greenLedPin = 23
	redLedPin   = 24
	rpiPinCount = 28
)

type statusLed struct {
	sync.Mutex
	pin         gpio.OutputPin
	cancelBlink func()
}

// Turn led on/off, cancel blink
func (l *statusLed) Set(on bool) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	if err := l.pin.Write(on); err != nil {
		return errors.Wrap(err, "Write failed")
	}
	return nil
}

// Blink led on/off
func (l *statusLed) Blink(delay time.Duration) error {
	l.Mutex.Lock()
	defer l.Mutex.Unlock()

	if cancel := l.cancelBlink; cancel != nil {
		l.cancelBlink = nil
		cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelBlink = cancel
	go func() {
		value := true
		for {
			l.Mutex.Lock()
			if ctx.Err() == nil {
				l.pin.Write(value)
				value = !value
			}
			l.Mutex.Unlock()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

type piBridge struct {
	mutex    sync.Mutex
	greenLed statusLed
	redLed   statusLed
	claimed  map[int]struct{}
}

// NewRaspberryPiBridge implements the bridge for Raspberry PI's
func NewRaspberryPiBridge() (API, error) {
	activeLow := false
	initialValue := false
	greenLed, err := gpio.Output(greenLedPin, activeLow, initialValue)
	if err != nil {
		return nil, maskAny(err)
	}
	redLed, err := gpio.Output(redLedPin, activeLow, initialValue)
	if err != nil {
		return nil, maskAny(err)
	}
	return &piBridge{
		greenLed: statusLed{pin: greenLed},
		redLed:   statusLed{pin: redLed},
		claimed:  make(map[int]struct{}),
	}, nil
}

// Turn Green status led on/off
func (p *piBridge) SetGreenLED(on bool) error {
	return maskAny(p.greenLed.Set(on))
}

// Turn Red status led on/off
func (p *piBridge) SetRedLED(on bool) error {
	return maskAny(p.redLed.Set(on))
}

// Blink Green status led with given duration between on/off
func (p *piBridge) BlinkGreenLED(delay time.Duration) error {
	return maskAny(p.greenLed.Blink(delay))
}

// Blink Red status led with given duration between on/off
func (p *piBridge) BlinkRedLED(delay time.Duration) error {
	return maskAny(p.redLed.Blink(delay))
}

// Returns number of local pins
func (p *piBridge) PinCount() int {
	return rpiPinCount
}

// Line claims the GPIO line with the given pin number.
func (p *piBridge) Line(pinNumber int) (Line, error) {
	if pinNumber < 0 || pinNumber >= rpiPinCount {
		return nil, errors.Wrapf(InvalidPinError, "pin %d out of range [0..%d]", pinNumber, rpiPinCount-1)
	}
	if pinNumber == greenLedPin || pinNumber == redLedPin {
		return nil, errors.Wrapf(PinInUseError, "pin %d is a status led", pinNumber)
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if _, found := p.claimed[pinNumber]; found {
		return nil, errors.Wrapf(PinInUseError, "pin %d", pinNumber)
	}
	p.claimed[pinNumber] = struct{}{}
	lineClaimsTotal.Inc()
	return &sysfsLine{
		pin: pinNumber,
		release: func() {
			p.mutex.Lock()
			delete(p.claimed, pinNumber)
			p.mutex.Unlock()
			lineReleasesTotal.Inc()
		},
	}, nil
}

func (p *piBridge) Close() error {
	p.greenLed.Set(false)
	p.redLed.Set(false)
	return nil
}
