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
	"testing"
	"time"

	"github.com/gpiokit/SignalWorker/model"
)

func floatPtr(v float64) *float64 { return &v }

func TestSpecForRequest(t *testing.T) {
	tests := []struct {
		name    string
		request DimmerRequest
		want    patternSpec
		invalid bool
	}{
		{
			name:    "fixed duty",
			request: DimmerRequest{ID: "d1", DutyPercent: floatPtr(40)},
			want:    patternSpec{name: PatternNone, duty: 40},
		},
		{
			name:    "fixed duty overrides pattern",
			request: DimmerRequest{ID: "d1", DutyPercent: floatPtr(0), Pattern: PatternBlink},
			want:    patternSpec{name: PatternNone, duty: 0},
		},
		{
			name:    "breathing default step",
			request: DimmerRequest{ID: "d1", Pattern: PatternBreathing},
			want:    patternSpec{name: PatternBreathing, stepInterval: defaultBreathingStep},
		},
		{
			name:    "blink custom step",
			request: DimmerRequest{ID: "d1", Pattern: PatternBlink, StepIntervalMs: 250},
			want:    patternSpec{name: PatternBlink, stepInterval: 250 * time.Millisecond},
		},
		{
			name:    "duty too high",
			request: DimmerRequest{ID: "d1", DutyPercent: floatPtr(100.5)},
			invalid: true,
		},
		{
			name:    "duty negative",
			request: DimmerRequest{ID: "d1", DutyPercent: floatPtr(-1)},
			invalid: true,
		},
		{
			name:    "unknown pattern",
			request: DimmerRequest{ID: "d1", Pattern: "strobe"},
			invalid: true,
		},
		{
			name:    "empty request",
			request: DimmerRequest{ID: "d1"},
			invalid: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := specForRequest(tc.request)
			if tc.invalid {
				if !model.IsValidation(err) {
					t.Fatalf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if spec != tc.want {
				t.Errorf("Expected spec %+v, got %+v", tc.want, spec)
			}
		})
	}
}

func TestPatternStateFixedDuty(t *testing.T) {
	state := newPatternState(patternSpec{name: PatternNone, duty: 65})
	if got := state.step(); got != 65 {
		t.Errorf("Expected duty 65, got %v", got)
	}
	if !state.done() {
		t.Error("Expected fixed duty pattern to be done after one step")
	}
}

func TestPatternStateBreathing(t *testing.T) {
	state := newPatternState(patternSpec{name: PatternBreathing, stepInterval: defaultBreathingStep})
	// Rises in steps of 2 up to 100.
	for i := 1; i <= 50; i++ {
		got := state.step()
		want := float64(i * 2)
		if got != want {
			t.Fatalf("Step %d: expected duty %v, got %v", i, want, got)
		}
	}
	// Then falls back to 0.
	for i := 1; i <= 50; i++ {
		got := state.step()
		want := float64(100 - i*2)
		if got != want {
			t.Fatalf("Step %d (falling): expected duty %v, got %v", i, want, got)
		}
	}
	// And rises again.
	if got := state.step(); got != 2 {
		t.Errorf("Expected duty 2 after full cycle, got %v", got)
	}
	if state.done() {
		t.Error("Breathing pattern must never report done")
	}
}

func TestPatternStateBlink(t *testing.T) {
	state := newPatternState(patternSpec{name: PatternBlink, stepInterval: defaultBlinkStep})
	want := []float64{100, 0, 100, 0}
	for i, w := range want {
		if got := state.step(); got != w {
			t.Fatalf("Step %d: expected duty %v, got %v", i, w, got)
		}
	}
	if state.done() {
		t.Error("Blink pattern must never report done")
	}
}
