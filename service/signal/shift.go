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
	"time"

	"github.com/pkg/errors"
)

// MAX7219 register addresses.
const (
	RegNoOp        byte = 0x00
	RegDigit0      byte = 0x01
	RegDigit7      byte = 0x08
	RegDecodeMode  byte = 0x09
	RegIntensity   byte = 0x0A
	RegScanLimit   byte = 0x0B
	RegShutdown    byte = 0x0C
	RegDisplayTest byte = 0x0F

	maxRegister byte = 0x0F
)

// DefaultSetupTime is the minimum hold time per clock phase.
// The MAX7219 needs about 1us; other driver chips may need more.
const DefaultSetupTime = time.Microsecond

// RegisterWord is one 16-bit frame for a driver chip: an address byte
// followed by a data byte, transmitted MSB first.
type RegisterWord struct {
	Register byte
	Value    byte
}

// ShiftTransmitter programs display-driver registers by bit-banging a
// software-clocked serial link. The protocol has no acknowledgement;
// the transmitter only guarantees the bit pattern was asserted on the
// lines in the correct order and timing.
type ShiftTransmitter struct {
	data      Line
	clockLine Line
	latch     Line
	clock     Clock
	setupTime time.Duration
}

// NewShiftTransmitter creates a transmitter on the given data, clock
// and latch lines. A nil clock selects the SystemClock; a zero
// setupTime selects DefaultSetupTime.
func NewShiftTransmitter(data, clockLine, latch Line, clock Clock, setupTime time.Duration) (*ShiftTransmitter, error) {
	if clock == nil {
		clock = SystemClock
	}
	if setupTime <= 0 {
		setupTime = DefaultSetupTime
	}
	t := &ShiftTransmitter{
		data:      data,
		clockLine: clockLine,
		latch:     latch,
		clock:     clock,
		setupTime: setupTime,
	}
	if err := t.configureLines(); err != nil {
		return nil, maskAny(err)
	}
	return t, nil
}

// configureLines puts all three lines in output mode in their idle state:
// clock and data low, latch high (deselected).
func (t *ShiftTransmitter) configureLines() error {
	for _, l := range []Line{t.data, t.clockLine, t.latch} {
		if err := l.SetDirection(DirectionOutput); err != nil {
			return errors.Wrapf(LineIOError, "set output: %v", err)
		}
	}
	if err := t.clockLine.Set(false); err != nil {
		return errors.Wrapf(LineIOError, "clock idle: %v", err)
	}
	if err := t.data.Set(false); err != nil {
		return errors.Wrapf(LineIOError, "data idle: %v", err)
	}
	if err := t.latch.Set(true); err != nil {
		return errors.Wrapf(LineIOError, "latch idle: %v", err)
	}
	return nil
}

// WriteRegister writes one value to one register of a single chip.
func (t *ShiftTransmitter) WriteRegister(register, value byte) error {
	return t.WriteChain([]RegisterWord{{Register: register, Value: value}})
}

// WriteChain writes one 16-bit frame per chip in a cascaded chain and
// then latches. The first word ends up in the most distant chip, so
// callers list words most-distant chip first.
func (t *ShiftTransmitter) WriteChain(words []RegisterWord) error {
	if len(words) == 0 {
		return errors.Wrap(InvalidParameterError, "empty chain")
	}
	for _, w := range words {
		if w.Register > maxRegister {
			return errors.Wrapf(InvalidParameterError, "register 0x%02x out of range [0x00..0x%02x]", w.Register, maxRegister)
		}
	}
	if err := t.latch.Set(false); err != nil {
		return errors.Wrapf(LineIOError, "select: %v", err)
	}
	for _, w := range words {
		if err := t.shiftByte(w.Register); err != nil {
			return maskAny(err)
		}
		if err := t.shiftByte(w.Value); err != nil {
			return maskAny(err)
		}
	}
	// Rising latch edge commits the shifted bits.
	if err := t.latch.Set(true); err != nil {
		return errors.Wrapf(LineIOError, "latch: %v", err)
	}
	return nil
}

// shiftByte clocks one byte out MSB first.
func (t *ShiftTransmitter) shiftByte(value byte) error {
	for bit := 0; bit < 8; bit++ {
		if err := t.data.Set(value&0x80 != 0); err != nil {
			return errors.Wrapf(LineIOError, "data: %v", err)
		}
		t.clock.Sleep(t.setupTime)
		if err := t.clockLine.Set(true); err != nil {
			return errors.Wrapf(LineIOError, "clock high: %v", err)
		}
		t.clock.Sleep(t.setupTime)
		if err := t.clockLine.Set(false); err != nil {
			return errors.Wrapf(LineIOError, "clock low: %v", err)
		}
		value <<= 1
	}
	return nil
}
