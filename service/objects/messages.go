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

import "time"

// DimmerRequest asks a PWM output to change its brightness.
// Either a fixed duty cycle or a named pattern.
type DimmerRequest struct {
	// ID of the addressed output
	ID string `json:"id"`
	// Fixed duty cycle (percent); overrides any running pattern
	DutyPercent *float64 `json:"duty-percent,omitempty"`
	// Named pattern to run instead of a fixed duty cycle
	Pattern PatternName `json:"pattern,omitempty"`
	// Interval between pattern steps; 0 selects the pattern default
	StepIntervalMs int `json:"step-interval-ms,omitempty"`
}

// ClimateActual is one successfully decoded sensor reading.
type ClimateActual struct {
	// ID of the sensor that produced the reading
	ID string `json:"id"`
	// Relative humidity in percent
	Humidity float64 `json:"humidity"`
	// Temperature in degrees Celsius
	Temperature float64 `json:"temperature"`
	// Wall-clock label of the reading (not used for timing decisions)
	Time time.Time `json:"time"`
}

// DisplayRequest asks a display driver chain to change brightness
// and/or show new row content.
type DisplayRequest struct {
	// ID of the addressed display
	ID string `json:"id"`
	// Brightness (0-15)
	Intensity *int `json:"intensity,omitempty"`
	// New content for the 8 digit/row registers
	Rows *[8]byte `json:"rows,omitempty"`
}
