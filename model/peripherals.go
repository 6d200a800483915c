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

import "github.com/pkg/errors"

// PWMOutput configures one software PWM driven output such as a
// dimmable LED or a passive buzzer.
type PWMOutput struct {
	// Unique ID of the output
	ID string `json:"id"`
	// GPIO pin number the output is connected to
	Pin int `json:"pin"`
	// PWM frequency in Hz
	FrequencyHz int `json:"frequency-hz"`
	// Duty cycle (percent) applied at startup
	InitialDutyPercent float64 `json:"initial-duty-percent"`
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (o PWMOutput) Validate() error {
	if o.ID == "" {
		return errors.Wrap(ValidationError, "output ID is empty")
	}
	if o.FrequencyHz < 1 || o.FrequencyHz > 100000 {
		return errors.Wrapf(ValidationError, "frequency %d of '%s' out of range [1..100000]", o.FrequencyHz, o.ID)
	}
	if o.InitialDutyPercent < 0 || o.InitialDutyPercent > 100 {
		return errors.Wrapf(ValidationError, "initial duty %v of '%s' out of range [0..100]", o.InitialDutyPercent, o.ID)
	}
	return nil
}

// Sensor configures one single-wire climate sensor.
type Sensor struct {
	// Unique ID of the sensor
	ID string `json:"id"`
	// GPIO pin number the sensor data line is connected to
	Pin int `json:"pin"`
	// Seconds between two sensor reads
	IntervalSec int `json:"interval-sec"`
	// Maximum immediate retries after a framing or checksum failure
	MaxRetries int `json:"max-retries,omitempty"`
}

const (
	// MinSensorIntervalSec is the lowest accepted poll interval.
	// The sensor needs at least a second between reads.
	MinSensorIntervalSec = 1
	// DefaultSensorRetries bounds immediate retries when not configured.
	DefaultSensorRetries = 5
)

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (s Sensor) Validate() error {
	if s.ID == "" {
		return errors.Wrap(ValidationError, "sensor ID is empty")
	}
	if s.IntervalSec < MinSensorIntervalSec {
		return errors.Wrapf(ValidationError, "interval %d of '%s' below minimum %d", s.IntervalSec, s.ID, MinSensorIntervalSec)
	}
	if s.MaxRetries < 0 {
		return errors.Wrapf(ValidationError, "negative max-retries in '%s'", s.ID)
	}
	return nil
}

// RetryLimit returns the configured retry bound, falling back to the
// default when unset.
func (s Sensor) RetryLimit() int {
	if s.MaxRetries == 0 {
		return DefaultSensorRetries
	}
	return s.MaxRetries
}

// Display configures one chain of shift-register display driver chips.
type Display struct {
	// Unique ID of the display
	ID string `json:"id"`
	// GPIO pin number of the serial data line
	DataPin int `json:"data-pin"`
	// GPIO pin number of the clock line
	ClockPin int `json:"clock-pin"`
	// GPIO pin number of the chip-select/latch line
	LatchPin int `json:"latch-pin"`
	// Number of cascaded driver chips (1...)
	ChainLength int `json:"chain-length,omitempty"`
	// Brightness (0-15) applied at startup
	Intensity int `json:"intensity"`
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (d Display) Validate() error {
	if d.ID == "" {
		return errors.Wrap(ValidationError, "display ID is empty")
	}
	if d.ChainLength < 0 {
		return errors.Wrapf(ValidationError, "negative chain length in '%s'", d.ID)
	}
	if d.Intensity < 0 || d.Intensity > 15 {
		return errors.Wrapf(ValidationError, "intensity %d of '%s' out of range [0..15]", d.Intensity, d.ID)
	}
	if d.DataPin == d.ClockPin || d.DataPin == d.LatchPin || d.ClockPin == d.LatchPin {
		return errors.Wrapf(ValidationError, "display '%s' reuses a pin for two lines", d.ID)
	}
	return nil
}

// Chips returns the configured chain length, defaulting to a single chip.
func (d Display) Chips() int {
	if d.ChainLength < 1 {
		return 1
	}
	return d.ChainLength
}
