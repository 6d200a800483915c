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

	"github.com/gpiokit/SignalWorker/model"
)

// PatternName identifies a brightness pattern a dimmer can run.
type PatternName string

const (
	// PatternNone holds a fixed duty cycle.
	PatternNone PatternName = ""
	// PatternBreathing fades smoothly between 0 and 100 percent.
	PatternBreathing PatternName = "breathing"
	// PatternBlink alternates between 0 and 100 percent.
	PatternBlink PatternName = "blink"
)

const (
	defaultBreathingStep = 20 * time.Millisecond
	defaultBlinkStep     = 500 * time.Millisecond
)

// patternSpec is one queued pattern descriptor.
type patternSpec struct {
	name         PatternName
	duty         float64 // target duty for PatternNone
	stepInterval time.Duration
}

// specForRequest translates a request into a pattern descriptor.
func specForRequest(r DimmerRequest) (patternSpec, error) {
	spec := patternSpec{
		name:         r.Pattern,
		stepInterval: time.Duration(r.StepIntervalMs) * time.Millisecond,
	}
	if r.DutyPercent != nil {
		if *r.DutyPercent < 0 || *r.DutyPercent > 100 {
			return patternSpec{}, errors.Wrapf(model.ValidationError, "duty %v out of range [0..100]", *r.DutyPercent)
		}
		spec.name = PatternNone
		spec.duty = *r.DutyPercent
		return spec, nil
	}
	switch r.Pattern {
	case PatternBreathing:
		if spec.stepInterval <= 0 {
			spec.stepInterval = defaultBreathingStep
		}
	case PatternBlink:
		if spec.stepInterval <= 0 {
			spec.stepInterval = defaultBlinkStep
		}
	default:
		return patternSpec{}, errors.Wrapf(model.ValidationError, "unknown pattern '%s'", r.Pattern)
	}
	return spec, nil
}

// patternState is the explicit progression state of a running pattern.
// It is owned by the dimmer run loop and advanced by step; there is no
// state hidden anywhere else.
type patternState struct {
	spec       patternSpec
	brightness float64
	direction  float64
	on         bool
}

func newPatternState(spec patternSpec) *patternState {
	return &patternState{
		spec:      spec,
		direction: 1,
	}
}

// step advances the pattern one tick and returns the duty cycle to apply.
func (s *patternState) step() float64 {
	switch s.spec.name {
	case PatternBreathing:
		s.brightness += s.direction * 2
		if s.brightness >= 100 {
			s.brightness = 100
			s.direction = -1
		} else if s.brightness <= 0 {
			s.brightness = 0
			s.direction = 1
		}
		return s.brightness
	case PatternBlink:
		s.on = !s.on
		if s.on {
			return 100
		}
		return 0
	default:
		return s.spec.duty
	}
}

// done reports whether the pattern needs no further steps.
// Fixed duty specs are done after one application.
func (s *patternState) done() bool {
	return s.spec.name == PatternNone
}
