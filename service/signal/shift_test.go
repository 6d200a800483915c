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
	"testing"
	"time"
)

// memLine is a plain in-memory output line with an optional transition hook.
type memLine struct {
	level bool
	onSet func(old, level bool)
}

func (l *memLine) SetDirection(direction Direction) error { return nil }

func (l *memLine) Set(level bool) error {
	old := l.level
	l.level = level
	if l.onSet != nil {
		l.onSet(old, level)
	}
	return nil
}

func (l *memLine) Get() (bool, error) { return l.level, nil }

func (l *memLine) WaitForEdge(timeout time.Duration) (Edge, error) {
	return 0, ErrEdgeTimeout
}

// chipProbe samples the data line on every rising clock edge and
// snapshots the shifted bits on every rising latch edge, like the
// driver chip itself would.
type chipProbe struct {
	data, clock, latch *memLine
	shifted            []bool
	committed          [][]bool
}

func newChipProbe() *chipProbe {
	p := &chipProbe{
		data:  &memLine{},
		clock: &memLine{},
		latch: &memLine{},
	}
	p.clock.onSet = func(old, level bool) {
		if !old && level {
			p.shifted = append(p.shifted, p.data.level)
		}
	}
	p.latch.onSet = func(old, level bool) {
		if !old && level {
			frame := make([]bool, len(p.shifted))
			copy(frame, p.shifted)
			p.committed = append(p.committed, frame)
			p.shifted = nil
		}
	}
	return p
}

func bitsOf(s string) []bool {
	var bits []bool
	for _, c := range s {
		switch c {
		case '0':
			bits = append(bits, false)
		case '1':
			bits = append(bits, true)
		}
	}
	return bits
}

func equalBits(a, b []bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestWriteRegisterBitOrder(t *testing.T) {
	probe := newChipProbe()
	tx, err := NewShiftTransmitter(probe.data, probe.clock, probe.latch, &virtualClock{}, 0)
	if err != nil {
		t.Fatalf("NewShiftTransmitter failed: %v", err)
	}
	// NewShiftTransmitter raises the latch to its idle state, which the
	// probe records as an empty commit.
	probe.committed = nil

	// Intensity register, value 0x0F.
	if err := tx.WriteRegister(RegIntensity, 0x0F); err != nil {
		t.Fatalf("WriteRegister failed: %v", err)
	}
	if len(probe.committed) != 1 {
		t.Fatalf("got %d latch commits, want 1", len(probe.committed))
	}
	want := bitsOf("00001010 00001111")
	if !equalBits(probe.committed[0], want) {
		t.Fatalf("shifted bits %v, want %v", probe.committed[0], want)
	}
}

func TestWriteChainShiftsMostDistantFirst(t *testing.T) {
	probe := newChipProbe()
	tx, err := NewShiftTransmitter(probe.data, probe.clock, probe.latch, &virtualClock{}, 0)
	if err != nil {
		t.Fatalf("NewShiftTransmitter failed: %v", err)
	}
	probe.committed = nil

	err = tx.WriteChain([]RegisterWord{
		{Register: RegDigit0, Value: 0xAA}, // most distant chip
		{Register: RegDigit0, Value: 0x55},
	})
	if err != nil {
		t.Fatalf("WriteChain failed: %v", err)
	}
	if len(probe.committed) != 1 {
		t.Fatalf("got %d latch commits, want 1", len(probe.committed))
	}
	want := bitsOf("00000001 10101010 00000001 01010101")
	if !equalBits(probe.committed[0], want) {
		t.Fatalf("shifted bits %v, want %v", probe.committed[0], want)
	}
}

func TestWriteRegisterValidation(t *testing.T) {
	probe := newChipProbe()
	tx, err := NewShiftTransmitter(probe.data, probe.clock, probe.latch, &virtualClock{}, 0)
	if err != nil {
		t.Fatalf("NewShiftTransmitter failed: %v", err)
	}
	if err := tx.WriteRegister(0x10, 0); !IsInvalidParameter(err) {
		t.Errorf("register 0x10: got %v, want InvalidParameterError", err)
	}
	if err := tx.WriteChain(nil); !IsInvalidParameter(err) {
		t.Errorf("empty chain: got %v, want InvalidParameterError", err)
	}
}

func TestTransmitterIdleState(t *testing.T) {
	probe := newChipProbe()
	if _, err := NewShiftTransmitter(probe.data, probe.clock, probe.latch, &virtualClock{}, time.Microsecond); err != nil {
		t.Fatalf("NewShiftTransmitter failed: %v", err)
	}
	if probe.clock.level {
		t.Error("clock not idle LOW")
	}
	if probe.data.level {
		t.Error("data not idle LOW")
	}
	if !probe.latch.level {
		t.Error("latch not idle HIGH")
	}
}
