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
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gpiokit/SignalWorker/model"
	"github.com/gpiokit/SignalWorker/service/signal"
)

// chainProbe behaves like a chain of driver chips: it samples the data
// line on every rising clock edge and turns the sampled bits into
// register words on every rising latch edge. Empty commits (the idle
// latch level set during line setup) are ignored.
type chainProbe struct {
	t      *testing.T
	bits   []byte
	frames [][]signal.RegisterWord
}

func (p *chainProbe) attach(data, clock, latch *testLine) {
	clock.onSet = func(old, level bool) {
		if !old && level {
			if data.level {
				p.bits = append(p.bits, 1)
			} else {
				p.bits = append(p.bits, 0)
			}
		}
	}
	latch.onSet = func(old, level bool) {
		if !old && level {
			p.commit()
		}
	}
}

func (p *chainProbe) commit() {
	if len(p.bits) == 0 {
		return
	}
	if len(p.bits)%16 != 0 {
		p.t.Fatalf("Committed %d bits, expected a multiple of 16", len(p.bits))
	}
	var frame []signal.RegisterWord
	for i := 0; i < len(p.bits); i += 16 {
		var word signal.RegisterWord
		for _, b := range p.bits[i : i+8] {
			word.Register = word.Register<<1 | b
		}
		for _, b := range p.bits[i+8 : i+16] {
			word.Value = word.Value<<1 | b
		}
		frame = append(frame, word)
	}
	p.frames = append(p.frames, frame)
	p.bits = nil
}

func testDisplay(t *testing.T, chainLength int) (*matrixDisplay, *chainProbe) {
	t.Helper()
	br := newTestBridge()
	config := model.Display{ID: "m1", DataPin: 10, ClockPin: 11, LatchPin: 8, ChainLength: chainLength, Intensity: 4}
	obj, err := newMatrixDisplay(config, br, zerolog.Nop())
	if err != nil {
		t.Fatalf("newMatrixDisplay failed: %v", err)
	}
	probe := &chainProbe{t: t}
	probe.attach(br.lines[10], br.lines[11], br.lines[8])
	return obj.(*matrixDisplay), probe
}

func TestDisplayConfigureRunsInitSequence(t *testing.T) {
	display, probe := testDisplay(t, 2)
	if err := display.Configure(context.Background()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	wantWords := []signal.RegisterWord{
		{Register: signal.RegDisplayTest, Value: 0x00},
		{Register: signal.RegScanLimit, Value: 0x07},
		{Register: signal.RegDecodeMode, Value: 0x00},
		{Register: signal.RegShutdown, Value: 0x01},
		{Register: signal.RegIntensity, Value: 0x04},
		{Register: signal.RegDigit0, Value: 0x00},
		{Register: signal.RegDigit0 + 1, Value: 0x00},
		{Register: signal.RegDigit0 + 2, Value: 0x00},
		{Register: signal.RegDigit0 + 3, Value: 0x00},
		{Register: signal.RegDigit0 + 4, Value: 0x00},
		{Register: signal.RegDigit0 + 5, Value: 0x00},
		{Register: signal.RegDigit0 + 6, Value: 0x00},
		{Register: signal.RegDigit0 + 7, Value: 0x00},
	}
	if len(probe.frames) != len(wantWords) {
		t.Fatalf("Expected %d committed frames, got %d", len(wantWords), len(probe.frames))
	}
	for i, want := range wantWords {
		frame := probe.frames[i]
		// Every chip in the chain receives the same word.
		if len(frame) != 2 {
			t.Fatalf("Frame %d: expected 2 words, got %d", i, len(frame))
		}
		for _, got := range frame {
			if got != want {
				t.Errorf("Frame %d: expected %+v, got %+v", i, want, got)
			}
		}
	}
}

func TestDisplayProcessMessageRows(t *testing.T) {
	display, probe := testDisplay(t, 1)
	if err := display.Configure(context.Background()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	probe.frames = nil

	rows := [8]byte{0x3C, 0x42, 0xA5, 0x81, 0xA5, 0x99, 0x42, 0x3C}
	msg := DisplayRequest{ID: "m1", Rows: &rows}
	if err := display.ProcessMessage(context.Background(), msg); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(probe.frames) != 8 {
		t.Fatalf("Expected 8 committed frames, got %d", len(probe.frames))
	}
	for i, frame := range probe.frames {
		want := signal.RegisterWord{Register: signal.RegDigit0 + byte(i), Value: rows[i]}
		if len(frame) != 1 || frame[0] != want {
			t.Errorf("Frame %d: expected %+v, got %+v", i, want, frame)
		}
	}
}

func TestDisplayProcessMessageIntensity(t *testing.T) {
	display, probe := testDisplay(t, 1)
	if err := display.Configure(context.Background()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	probe.frames = nil

	intensity := 9
	msg := DisplayRequest{ID: "m1", Intensity: &intensity}
	if err := display.ProcessMessage(context.Background(), msg); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(probe.frames) != 1 {
		t.Fatalf("Expected 1 committed frame, got %d", len(probe.frames))
	}
	want := signal.RegisterWord{Register: signal.RegIntensity, Value: 0x09}
	if probe.frames[0][0] != want {
		t.Errorf("Expected %+v, got %+v", want, probe.frames[0][0])
	}

	// Out of range values are ignored.
	probe.frames = nil
	intensity = 16
	if err := display.ProcessMessage(context.Background(), msg); err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if len(probe.frames) != 0 {
		t.Errorf("Expected no committed frames, got %d", len(probe.frames))
	}
}

func TestDisplayCloseBlanksAndReleases(t *testing.T) {
	display, probe := testDisplay(t, 1)
	if err := display.Configure(context.Background()); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	probe.frames = nil

	if err := display.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(probe.frames) != 1 {
		t.Fatalf("Expected 1 committed frame, got %d", len(probe.frames))
	}
	want := signal.RegisterWord{Register: signal.RegShutdown, Value: 0x00}
	if probe.frames[0][0] != want {
		t.Errorf("Expected %+v, got %+v", want, probe.frames[0][0])
	}
}
