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
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	// MinPWMFrequency is the lowest accepted PWM frequency in Hz.
	MinPWMFrequency = 1
	// MaxPWMFrequency is the highest accepted PWM frequency in Hz.
	// Near this limit the observed duty cycle degrades to whatever the
	// scheduler timing resolution allows; that is a documented
	// limitation, not an error.
	MaxPWMFrequency = 100000
)

// PWM is a running software PWM session on a single output line.
// The duty cycle is read once at the start of each period, so updates
// from other goroutines are picked up within one period.
type PWM struct {
	line      Line
	clock     Clock
	frequency int
	period    time.Duration
	dutyBits  uint64 // atomic, math.Float64bits of the duty percentage
	stop      chan struct{}
	done      chan struct{}

	mutex   sync.Mutex
	stopped bool
	loopErr error
}

// StartPWM begins generating a waveform with the given frequency (Hz)
// and initial duty cycle (percent) on the given line.
// The session keeps running until Stop is called or a line write fails.
func StartPWM(line Line, clock Clock, frequencyHz int, initialDuty float64) (*PWM, error) {
	if frequencyHz < MinPWMFrequency || frequencyHz > MaxPWMFrequency {
		return nil, errors.Wrapf(InvalidParameterError, "frequency %d out of range [%d..%d]", frequencyHz, MinPWMFrequency, MaxPWMFrequency)
	}
	if initialDuty < 0 || initialDuty > 100 {
		return nil, errors.Wrapf(InvalidParameterError, "duty cycle %v out of range [0..100]", initialDuty)
	}
	if clock == nil {
		clock = SystemClock
	}
	if err := line.SetDirection(DirectionOutput); err != nil {
		return nil, errors.Wrapf(LineIOError, "set direction: %v", err)
	}
	p := &PWM{
		line:      line,
		clock:     clock,
		frequency: frequencyHz,
		period:    time.Second / time.Duration(frequencyHz),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	atomic.StoreUint64(&p.dutyBits, math.Float64bits(initialDuty))
	go p.run()
	return p, nil
}

// Frequency returns the frequency (Hz) the session was started with.
func (p *PWM) Frequency() int {
	return p.frequency
}

// Duty returns the duty cycle (percent) used for subsequent periods.
func (p *PWM) Duty() float64 {
	return math.Float64frombits(atomic.LoadUint64(&p.dutyBits))
}

// SetDuty updates the duty cycle used by subsequent periods.
// Safe to call from any goroutine; a period never observes a torn value.
func (p *PWM) SetDuty(duty float64) error {
	if duty < 0 || duty > 100 {
		return errors.Wrapf(InvalidParameterError, "duty cycle %v out of range [0..100]", duty)
	}
	atomic.StoreUint64(&p.dutyBits, math.Float64bits(duty))
	return nil
}

// Stop terminates the generation loop and forces the line LOW.
// It returns the error that ended the loop, if any.
// The loop notices the stop within one period.
func (p *PWM) Stop() error {
	p.mutex.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stop)
	}
	p.mutex.Unlock()
	<-p.done
	return p.Err()
}

// Err returns the error that terminated the generation loop, or nil
// while the loop is still running or was stopped cleanly.
func (p *PWM) Err() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.loopErr
}

func (p *PWM) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			p.forceLow()
			return
		default:
			// Next period
		}
		// Read the duty once so a concurrent SetDuty cannot tear
		// a period's on/off split.
		duty := p.Duty()
		onTime := time.Duration(float64(p.period) * duty / 100)
		offTime := p.period - onTime
		if duty > 0 {
			if err := p.line.Set(true); err != nil {
				p.fail(err)
				return
			}
			p.clock.Sleep(onTime)
		}
		if duty < 100 {
			if err := p.line.Set(false); err != nil {
				p.fail(err)
				return
			}
			p.clock.Sleep(offTime)
		}
	}
}

// fail records the line write failure and leaves the loop.
// One failed write most likely means the line was released externally,
// so there is no retry.
func (p *PWM) fail(err error) {
	p.mutex.Lock()
	p.loopErr = errors.Wrapf(LineIOError, "pwm write: %v", err)
	p.mutex.Unlock()
	p.forceLow()
}

func (p *PWM) forceLow() {
	if err := p.line.Set(false); err != nil {
		p.mutex.Lock()
		if p.loopErr == nil {
			p.loopErr = errors.Wrapf(LineIOError, "force low: %v", err)
		}
		p.mutex.Unlock()
	}
}
