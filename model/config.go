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

package model

import (
	"github.com/pkg/errors"
)

// LocalConfiguration holds the configuration of a single signal worker.
type LocalConfiguration struct {
	// PWM driven outputs (dimmable LEDs, buzzers)
	Outputs []PWMOutput `json:"outputs,omitempty"`
	// Single-wire climate sensors
	Sensors []Sensor `json:"sensors,omitempty"`
	// Shift-register display drivers
	Displays []Display `json:"displays,omitempty"`
}

// OutputByID returns the output with given ID.
// Return false if not found.
func (c LocalConfiguration) OutputByID(id string) (PWMOutput, bool) {
	for _, o := range c.Outputs {
		if o.ID == id {
			return o, true
		}
	}
	return PWMOutput{}, false
}

// SensorByID returns the sensor with given ID.
// Return false if not found.
func (c LocalConfiguration) SensorByID(id string) (Sensor, bool) {
	for _, s := range c.Sensors {
		if s.ID == id {
			return s, true
		}
	}
	return Sensor{}, false
}

// DisplayByID returns the display with given ID.
// Return false if not found.
func (c LocalConfiguration) DisplayByID(id string) (Display, bool) {
	for _, d := range c.Displays {
		if d.ID == id {
			return d, true
		}
	}
	return Display{}, false
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (c LocalConfiguration) Validate() error {
	pins := make(map[int]string)
	claimPin := func(pin int, id string) error {
		if pin < 0 {
			return errors.Wrapf(ValidationError, "negative pin %d in '%s'", pin, id)
		}
		if owner, used := pins[pin]; used {
			return errors.Wrapf(ValidationError, "pin %d in '%s' already used by '%s'", pin, id, owner)
		}
		pins[pin] = id
		return nil
	}
	for _, o := range c.Outputs {
		if err := o.Validate(); err != nil {
			return maskAny(err)
		}
		if err := claimPin(o.Pin, o.ID); err != nil {
			return maskAny(err)
		}
	}
	for _, s := range c.Sensors {
		if err := s.Validate(); err != nil {
			return maskAny(err)
		}
		if err := claimPin(s.Pin, s.ID); err != nil {
			return maskAny(err)
		}
	}
	for _, d := range c.Displays {
		if err := d.Validate(); err != nil {
			return maskAny(err)
		}
		for _, pin := range []int{d.DataPin, d.ClockPin, d.LatchPin} {
			if err := claimPin(pin, d.ID); err != nil {
				return maskAny(err)
			}
		}
	}
	return nil
}
